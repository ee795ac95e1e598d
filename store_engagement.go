package duosite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/thxtduo/duosite/analytics"
)

// insertLike adds a like row. A uniqueness rejection is returned unwrapped so
// callers can recognise it with isUniqueViolation.
func (s *Store) insertLike(ctx context.Context, actor Identity, ref ContentRef) error {
	var userID any
	if actor.UserID != "" {
		userID = actor.UserID
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO likes (id, `+ref.Kind.column()+`, actor_key, user_id, device_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), ref.ID, actor.ActorKey(), userID, actor.DeviceKey, formatTime(s.now()))
	return err
}

func (s *Store) deleteLike(ctx context.Context, actorKey string, ref ContentRef) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM likes WHERE actor_key = ? AND `+ref.Kind.column()+` = ?`,
		actorKey, ref.ID)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	return nil
}

func (s *Store) likeCount(ctx context.Context, ref ContentRef) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE `+ref.Kind.column()+` = ?`, ref.ID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return n, nil
}

// ListLikes returns the like rows of a content item, newest first.
func (s *Store) ListLikes(ctx context.Context, ref ContentRef) ([]Like, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, actor_key, COALESCE(user_id, ''), device_key, created_at
		FROM likes WHERE `+ref.Kind.column()+` = ? ORDER BY created_at DESC`, ref.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Like
	for rows.Next() {
		l := Like{Parent: ref}
		var created string
		if err := rows.Scan(&l.ID, &l.ActorKey, &l.UserID, &l.DeviceKey, &created); err != nil {
			return nil, err
		}
		l.CreatedAt = parseTime(created)
		out = append(out, l)
	}
	return out, rows.Err()
}

const commentColumns = `c.id, COALESCE(c.blog_post_id, ''), COALESCE(c.lyrics_quote_id, ''), c.content,
	COALESCE(c.user_id, ''), c.guest_name, c.device_key, c.status, COALESCE(c.reviewed_by, ''),
	c.reviewed_at, c.created_at, c.updated_at`

func scanComment(row scanner, extra ...any) (Comment, error) {
	var cm Comment
	var blogID, lyricsID, state, created, updated string
	var reviewedAt sql.NullString
	dest := append([]any{&cm.ID, &blogID, &lyricsID, &cm.Content, &cm.UserID, &cm.DisplayName,
		&cm.DeviceKey, &state, &cm.ReviewedBy, &reviewedAt, &created, &updated}, extra...)
	if err := row.Scan(dest...); err != nil {
		return Comment{}, err
	}
	if blogID != "" {
		cm.Parent = ContentRef{Kind: KindBlog, ID: blogID}
	} else {
		cm.Parent = ContentRef{Kind: KindLyrics, ID: lyricsID}
	}
	cm.State = ModerationState(state)
	if reviewedAt.Valid {
		t := parseTime(reviewedAt.String)
		cm.ReviewedAt = &t
	}
	cm.CreatedAt = parseTime(created)
	cm.UpdatedAt = parseTime(updated)
	return cm, nil
}

func (s *Store) insertComment(ctx context.Context, cm Comment) error {
	var userID any
	if cm.UserID != "" {
		userID = cm.UserID
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO comments
		(id, `+cm.Parent.Kind.column()+`, content, user_id, guest_name, device_key, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cm.ID, cm.Parent.ID, cm.Content, userID, cm.DisplayName, cm.DeviceKey, string(cm.State),
		formatTime(cm.CreatedAt), formatTime(cm.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// GetComment returns a single comment by id.
func (s *Store) GetComment(ctx context.Context, id string) (Comment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments c WHERE c.id = ?`, id)
	return scanComment(row)
}

// ListComments returns the comments of a content item, newest first. When
// approvedOnly is set, pending and rejected comments are left out.
func (s *Store) ListComments(ctx context.Context, ref ContentRef, approvedOnly bool) ([]Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments c WHERE c.` + ref.Kind.column() + ` = ?`
	if approvedOnly {
		query += ` AND c.status = 'approved'`
	}
	query += ` ORDER BY c.created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, ref.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		cm, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cm)
	}
	return out, rows.Err()
}

func (s *Store) updateCommentState(ctx context.Context, id string, state ModerationState, reviewer string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE comments SET status = ?, reviewed_by = ?, reviewed_at = ?, updated_at = ?
		WHERE id = ?`, string(state), reviewer, formatTime(at), formatTime(at), id)
	if err != nil {
		return fmt.Errorf("update comment %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// listModerationQueue returns comments newest first joined with the
// commenter's account email and the title of the parent item.
func (s *Store) listModerationQueue(ctx context.Context, state ModerationState) ([]ModerationItem, error) {
	query := `SELECT ` + commentColumns + `,
		COALESCE(acc.email, ''),
		COALESCE(p.title, q.song || ' by ' || q.artist, '')
		FROM comments c
		LEFT JOIN accounts acc ON acc.id = c.user_id
		LEFT JOIN blog_posts p ON p.id = c.blog_post_id
		LEFT JOIN lyrics_quotes q ON q.id = c.lyrics_quote_id`
	var args []any
	if state != "" {
		query += ` WHERE c.status = ?`
		args = append(args, string(state))
	}
	query += ` ORDER BY c.created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ModerationItem
	for rows.Next() {
		var item ModerationItem
		cm, err := scanComment(rows, &item.AccountEmail, &item.ParentTitle)
		if err != nil {
			return nil, err
		}
		item.Comment = cm
		out = append(out, item)
	}
	return out, rows.Err()
}

// EngagementEvents returns the creation times of comments and likes made
// at or after since. It satisfies analytics.Source.
func (s *Store) EngagementEvents(ctx context.Context, since time.Time) (comments, likes []time.Time, err error) {
	comments, err = s.timestampsSince(ctx, "comments", since)
	if err != nil {
		return nil, nil, fmt.Errorf("comment timestamps: %w", err)
	}
	likes, err = s.timestampsSince(ctx, "likes", since)
	if err != nil {
		return nil, nil, fmt.Errorf("like timestamps: %w", err)
	}
	return comments, likes, nil
}

func (s *Store) timestampsSince(ctx context.Context, table string, since time.Time) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT created_at FROM `+table+` WHERE created_at >= ? ORDER BY created_at DESC`,
		formatTime(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, parseTime(v))
	}
	return out, rows.Err()
}

// EngagementTotals returns all-time counts for the analytics dashboard.
func (s *Store) EngagementTotals(ctx context.Context) (analytics.Totals, error) {
	var t analytics.Totals
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM blog_posts),
		(SELECT COUNT(*) FROM lyrics_quotes),
		(SELECT COUNT(*) FROM comments WHERE status = 'pending'),
		(SELECT COUNT(*) FROM comments WHERE status = 'approved'),
		(SELECT COUNT(*) FROM comments WHERE status = 'rejected'),
		(SELECT COUNT(*) FROM likes)`).Scan(&t.Posts, &t.Quotes, &t.Pending, &t.Approved, &t.Rejected, &t.Likes)
	if err != nil {
		return analytics.Totals{}, fmt.Errorf("engagement totals: %w", err)
	}
	t.Comments = t.Pending + t.Approved + t.Rejected
	return t, nil
}
