package duosite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const postColumns = `p.id, p.title, p.excerpt, p.content, p.author, p.image_url, p.published,
	p.admin_user_id, p.views_count, p.created_at, p.updated_at`

const quoteColumns = `q.id, q.lyrics, q.song, q.artist, q.meaning, q.story, q.image_url,
	q.admin_user_id, q.views_count, q.created_at, q.updated_at`

func scanPost(row scanner, extra ...any) (BlogPost, error) {
	var p BlogPost
	var published int
	var adminID sql.NullString
	var created, updated string
	dest := append([]any{&p.ID, &p.Title, &p.Excerpt, &p.Content, &p.Author, &p.ImageURL, &published,
		&adminID, &p.ViewsCount, &created, &updated}, extra...)
	if err := row.Scan(dest...); err != nil {
		return BlogPost{}, err
	}
	p.Published = published == 1
	p.AdminUserID = adminID.String
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return p, nil
}

func scanQuote(row scanner, extra ...any) (LyricsQuote, error) {
	var q LyricsQuote
	var adminID sql.NullString
	var created, updated string
	dest := append([]any{&q.ID, &q.Lyrics, &q.Song, &q.Artist, &q.Meaning, &q.Story, &q.ImageURL,
		&adminID, &q.ViewsCount, &created, &updated}, extra...)
	if err := row.Scan(dest...); err != nil {
		return LyricsQuote{}, err
	}
	q.AdminUserID = adminID.String
	q.CreatedAt = parseTime(created)
	q.UpdatedAt = parseTime(updated)
	return q, nil
}

// aggregateColumns selects live counts for the item aliased as alias, plus
// whether actorKey has liked it. The admin join must be aliased "a".
func aggregateColumns(kind ContentKind, alias string) string {
	col := kind.column()
	return fmt.Sprintf(`,
	(SELECT COUNT(*) FROM likes l WHERE l.%[1]s = %[2]s.id),
	(SELECT COUNT(*) FROM comments c WHERE c.%[1]s = %[2]s.id),
	(SELECT COUNT(*) FROM comments c WHERE c.%[1]s = %[2]s.id AND c.status = 'approved'),
	COALESCE(a.email, ''),
	EXISTS (SELECT 1 FROM likes l WHERE l.%[1]s = %[2]s.id AND l.actor_key = ?)`, col, alias)
}

func validatePost(p BlogPost) error {
	switch {
	case strings.TrimSpace(p.Title) == "":
		return invalid("title", "is required")
	case strings.TrimSpace(p.Excerpt) == "":
		return invalid("excerpt", "is required")
	case strings.TrimSpace(p.Content) == "":
		return invalid("content", "is required")
	case strings.TrimSpace(p.Author) == "":
		return invalid("author", "is required")
	}
	return nil
}

func validateQuote(q LyricsQuote) error {
	switch {
	case strings.TrimSpace(q.Lyrics) == "":
		return invalid("lyrics", "is required")
	case strings.TrimSpace(q.Song) == "":
		return invalid("song", "is required")
	case strings.TrimSpace(q.Artist) == "":
		return invalid("artist", "is required")
	}
	return nil
}

// CreatePost inserts a new blog post authored by admin and returns the stored row.
func (s *Store) CreatePost(ctx context.Context, admin Identity, p BlogPost) (BlogPost, error) {
	if err := validatePost(p); err != nil {
		return BlogPost{}, err
	}
	if err := s.requireAdmin(ctx, admin); err != nil {
		return BlogPost{}, err
	}
	now := s.now().UTC()
	p.ID = uuid.NewString()
	p.AdminUserID = admin.UserID
	p.ViewsCount = 0
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx, `INSERT INTO blog_posts
		(id, title, excerpt, content, author, image_url, published, admin_user_id, views_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		p.ID, strings.TrimSpace(p.Title), strings.TrimSpace(p.Excerpt), p.Content, strings.TrimSpace(p.Author),
		p.ImageURL, boolInt(p.Published), p.AdminUserID, formatTime(now), formatTime(now))
	if err != nil {
		return BlogPost{}, fmt.Errorf("insert blog post: %w", err)
	}
	return s.GetPostAny(ctx, p.ID)
}

// CreateQuote inserts a new lyrics quote and returns the stored row.
func (s *Store) CreateQuote(ctx context.Context, admin Identity, q LyricsQuote) (LyricsQuote, error) {
	if err := validateQuote(q); err != nil {
		return LyricsQuote{}, err
	}
	if err := s.requireAdmin(ctx, admin); err != nil {
		return LyricsQuote{}, err
	}
	now := s.now().UTC()
	q.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx, `INSERT INTO lyrics_quotes
		(id, lyrics, song, artist, meaning, story, image_url, admin_user_id, views_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		q.ID, strings.TrimSpace(q.Lyrics), strings.TrimSpace(q.Song), strings.TrimSpace(q.Artist),
		strings.TrimSpace(q.Meaning), strings.TrimSpace(q.Story), q.ImageURL, admin.UserID,
		formatTime(now), formatTime(now))
	if err != nil {
		return LyricsQuote{}, fmt.Errorf("insert lyrics quote: %w", err)
	}
	return s.GetQuote(ctx, q.ID)
}

// GetPost returns a single published post by id.
func (s *Store) GetPost(ctx context.Context, id string) (BlogPost, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM blog_posts p WHERE p.id = ? AND p.published = 1`, id)
	return scanPost(row)
}

// GetPostAny returns a post by id regardless of published status (for admin).
func (s *Store) GetPostAny(ctx context.Context, id string) (BlogPost, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM blog_posts p WHERE p.id = ?`, id)
	return scanPost(row)
}

// GetQuote returns a single lyrics quote by id.
func (s *Store) GetQuote(ctx context.Context, id string) (LyricsQuote, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM lyrics_quotes q WHERE q.id = ?`, id)
	return scanQuote(row)
}

// ListPostRows returns blog posts joined with live counts, newest first.
// actorKey marks the rows the given actor has liked; pass "" to skip.
func (s *Store) ListPostRows(ctx context.Context, actorKey string, publishedOnly bool) ([]PostRow, error) {
	query := `SELECT ` + postColumns + aggregateColumns(KindBlog, "p") + `
		FROM blog_posts p LEFT JOIN admin_users a ON a.id = p.admin_user_id`
	if publishedOnly {
		query += ` WHERE p.published = 1`
	}
	query += ` ORDER BY p.created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, actorKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PostRow
	for rows.Next() {
		r, err := scanPostRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetPostRow returns the aggregate row of one published post.
func (s *Store) GetPostRow(ctx context.Context, id, actorKey string) (PostRow, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+aggregateColumns(KindBlog, "p")+`
		FROM blog_posts p LEFT JOIN admin_users a ON a.id = p.admin_user_id
		WHERE p.id = ? AND p.published = 1`, actorKey, id)
	return scanPostRow(row)
}

func scanPostRow(row scanner) (PostRow, error) {
	var r PostRow
	var liked int
	p, err := scanPost(row, &r.Likes, &r.Comments, &r.ApprovedComments, &r.AdminEmail, &liked)
	if err != nil {
		return PostRow{}, err
	}
	r.BlogPost = p
	r.Liked = liked == 1
	return r, nil
}

// ListQuoteRows returns lyrics quotes joined with live counts, newest first.
func (s *Store) ListQuoteRows(ctx context.Context, actorKey string) ([]QuoteRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+quoteColumns+aggregateColumns(KindLyrics, "q")+`
		FROM lyrics_quotes q LEFT JOIN admin_users a ON a.id = q.admin_user_id
		ORDER BY q.created_at DESC`, actorKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QuoteRow
	for rows.Next() {
		r, err := scanQuoteRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetQuoteRow returns the aggregate row of one lyrics quote.
func (s *Store) GetQuoteRow(ctx context.Context, id, actorKey string) (QuoteRow, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+quoteColumns+aggregateColumns(KindLyrics, "q")+`
		FROM lyrics_quotes q LEFT JOIN admin_users a ON a.id = q.admin_user_id
		WHERE q.id = ?`, actorKey, id)
	return scanQuoteRow(row)
}

func scanQuoteRow(row scanner) (QuoteRow, error) {
	var r QuoteRow
	var liked int
	q, err := scanQuote(row, &r.Likes, &r.Comments, &r.ApprovedComments, &r.AdminEmail, &liked)
	if err != nil {
		return QuoteRow{}, err
	}
	r.LyricsQuote = q
	r.Liked = liked == 1
	return r, nil
}

// ContentExists reports whether ref resolves to a publicly visible item.
// Draft blog posts do not count.
func (s *Store) ContentExists(ctx context.Context, ref ContentRef) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM ` + ref.Kind.table() + ` WHERE id = ?`
	if ref.Kind == KindBlog {
		query += ` AND published = 1`
	}
	var exists int
	err := s.db.QueryRowContext(ctx, query+`)`, ref.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", ref, err)
	}
	return exists == 1, nil
}

func (s *Store) requireContent(ctx context.Context, ref ContentRef) error {
	if _, err := ParseContentKind(string(ref.Kind)); err != nil {
		return err
	}
	ok, err := s.ContentExists(ctx, ref)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// DeleteContent removes a content item; its comments and likes cascade.
func (s *Store) DeleteContent(ctx context.Context, admin Identity, ref ContentRef) error {
	if _, err := ParseContentKind(string(ref.Kind)); err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, admin); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+ref.Kind.table()+` WHERE id = ?`, ref.ID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", ref, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementViews bumps the view counter of a content item.
func (s *Store) IncrementViews(ctx context.Context, ref ContentRef) error {
	if _, err := ParseContentKind(string(ref.Kind)); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `UPDATE `+ref.Kind.table()+` SET views_count = views_count + 1 WHERE id = ?`, ref.ID)
	return err
}
