package duosite

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	s := newStoreWithDB(db)
	s.now = func() time.Time { return time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC) }
	return s, mock
}

func expectContent(mock sqlmock.Sqlmock, id string, exists int) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM blog_posts WHERE id = ? AND published = 1)`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("UNIQUE constraint failed: likes.actor_key, likes.blog_post_id"), true},
		{errors.New("database is locked"), false},
	}
	for _, tt := range tests {
		if got := isUniqueViolation(tt.err); got != tt.want {
			t.Errorf("isUniqueViolation(%q) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestToggleLikeUnlikesOnUniqueViolation(t *testing.T) {
	s, mock := newMockStore(t)
	ref := ContentRef{Kind: KindBlog, ID: "p1"}

	expectContent(mock, "p1", 1)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO likes`)).
		WillReturnError(errors.New("UNIQUE constraint failed: likes.actor_key, likes.blog_post_id"))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM likes WHERE actor_key = ? AND blog_post_id = ?`)).
		WithArgs("device:d", "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM likes WHERE blog_post_id = ?`)).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(4))

	res, err := s.ToggleLike(context.Background(), Identity{DeviceKey: "d"}, ref)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: false, Count: 4}, res)
}

func TestToggleLikeInsertFailure(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("disk I/O error")

	expectContent(mock, "p1", 1)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO likes`)).WillReturnError(boom)

	_, err := s.ToggleLike(context.Background(), Identity{DeviceKey: "d"}, ContentRef{Kind: KindBlog, ID: "p1"})
	assert.ErrorIs(t, err, boom)
}

func TestSubmitCommentValidatesBeforeStore(t *testing.T) {
	s, _ := newMockStore(t)
	// No expectations: any query would fail the mock.
	_, err := s.SubmitComment(context.Background(), Identity{DeviceKey: "d"},
		ContentRef{Kind: KindBlog, ID: "p1"}, "   ", "Jordan")
	assert.True(t, IsValidation(err))
}

func TestSubmitCommentMissingTarget(t *testing.T) {
	s, mock := newMockStore(t)
	expectContent(mock, "gone", 0)

	_, err := s.SubmitComment(context.Background(), Identity{DeviceKey: "d"},
		ContentRef{Kind: KindBlog, ID: "gone"}, "Hello", "Jordan")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngagementTotalsError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("no such table: likes"))

	_, err := s.EngagementTotals(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engagement totals")
}

func TestSetApprovalLookupFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM admin_users WHERE id = ?`)).
		WithArgs("u1").
		WillReturnError(errors.New("connection reset"))

	_, err := s.SetApproval(context.Background(), Identity{UserID: "u1"}, "c1", true)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrForbidden)
}
