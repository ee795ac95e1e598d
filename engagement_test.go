package duosite

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func TestToggleLikeParity(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	admin := newTestAdmin(t, s, "admin@example.com")
	ref := newTestPost(t, s, admin, "Likeable", true).Ref()
	fan := Identity{DeviceKey: "abc123"}

	for n := 1; n <= 5; n++ {
		res, err := s.ToggleLike(ctx, fan, ref)
		require.NoError(t, err)
		assert.Equal(t, n%2 == 1, res.Liked, "toggle %d", n)
		assert.Equal(t, n%2, res.Count, "toggle %d", n)
	}
}

func TestToggleLikeIsPerActor(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	admin := newTestAdmin(t, s, "admin@example.com")
	ref := newTestQuote(t, s, admin).Ref()
	a := Identity{DeviceKey: "device-a"}
	b := Identity{UserID: admin.UserID, Email: admin.Email, DeviceKey: "device-a"}

	res, err := s.ToggleLike(ctx, a, ref)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: true, Count: 1}, res)

	res, err = s.ToggleLike(ctx, b, ref)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: true, Count: 2}, res)

	res, err = s.ToggleLike(ctx, a, ref)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: false, Count: 1}, res)

	likes, err := s.ListLikes(ctx, ref)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, "user:"+admin.UserID, likes[0].ActorKey)
	assert.Equal(t, admin.UserID, likes[0].UserID)
}

func TestToggleLikeConcurrent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	admin := newTestAdmin(t, s, "admin@example.com")
	ref := newTestPost(t, s, admin, "Race", true).Ref()
	fan := Identity{DeviceKey: "racer"}

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.ToggleLike(ctx, fan, ref)
		}()
	}
	wg.Wait()

	ok := 0
	for i, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, isBusy(err), "toggle %d: %v", i, err)
	}

	likes, err := s.ListLikes(ctx, ref)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(likes), 1, "one actor never owns two like rows")
	if ok == n {
		assert.Empty(t, likes, "an even number of toggles leaves no like")
	}
}

// isBusy reports whether err is SQLite giving up on a locked database.
func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code() & 0xff
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}

func TestToggleLikeErrors(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.ToggleLike(ctx, Identity{DeviceKey: "d"}, ContentRef{Kind: KindBlog, ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.ToggleLike(ctx, Identity{}, ContentRef{Kind: KindBlog, ID: "missing"})
	assert.True(t, IsValidation(err), "an actor without any key is rejected")

	_, err = s.ToggleLike(ctx, Identity{DeviceKey: "d"}, ContentRef{Kind: "video", ID: "x"})
	assert.True(t, IsValidation(err))
}

func TestSubmitCommentGuestLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	admin := newTestAdmin(t, s, "admin@example.com")
	ref := newTestPost(t, s, admin, "Open thread", true).Ref()
	guest := Identity{DeviceKey: "guest-device"}

	cm, err := s.SubmitComment(ctx, guest, ref, "  What a <b>track</b>!  ", " Jordan ")
	require.NoError(t, err)
	assert.Equal(t, StatePending, cm.State)
	assert.Equal(t, "Jordan", cm.DisplayName)
	assert.Equal(t, "What a <b>track</b>!", cm.Content)
	assert.True(t, cm.Guest())
	assert.Equal(t, ref, cm.Parent)
	assert.Nil(t, cm.ReviewedAt)

	approved, err := s.ListComments(ctx, ref, true)
	require.NoError(t, err)
	assert.Empty(t, approved, "pending comments are hidden from the approved list")

	cm, err = s.SetApproval(ctx, admin, cm.ID, true)
	require.NoError(t, err)
	assert.Equal(t, StateApproved, cm.State)
	assert.Equal(t, admin.UserID, cm.ReviewedBy)
	require.NotNil(t, cm.ReviewedAt)

	approved, err = s.ListComments(ctx, ref, true)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "Jordan", approved[0].DisplayName)
}

func TestSubmitCommentSignedIn(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	admin := newTestAdmin(t, s, "admin@example.com")
	ref := newTestQuote(t, s, admin).Ref()

	cm, err := s.SubmitComment(ctx, admin, ref, "Signed comment", "Admin")
	require.NoError(t, err)
	assert.False(t, cm.Guest())
	assert.Equal(t, admin.UserID, cm.UserID)
	assert.Equal(t, KindLyrics, cm.Parent.Kind)
}

func TestSubmitCommentValidation(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	admin := newTestAdmin(t, s, "admin@example.com")
	ref := newTestPost(t, s, admin, "Strict", true).Ref()

	tests := []struct {
		name  string
		body  string
		who   string
		field string
	}{
		{"blank body", "   \n\t", "Jordan", "content"},
		{"newlines only body", "\n\r\n", "Jordan", "content"},
		{"blank name", "Nice", "   ", "name"},
		{"long body", strings.Repeat("a", maxCommentRunes+1), "Jordan", "content"},
		{"long name", "Nice", strings.Repeat("n", maxDisplayNameRunes+1), "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SubmitComment(ctx, Identity{DeviceKey: "d"}, ref, tt.body, tt.who)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	all, err := s.ListComments(ctx, ref, false)
	require.NoError(t, err)
	assert.Empty(t, all, "rejected input never reaches the store")
}

func TestSubmitCommentKeepsText(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	admin := newTestAdmin(t, s, "admin@example.com")
	ref := newTestPost(t, s, admin, "Verbatim", true).Ref()

	tests := []struct {
		body string
		name string
	}{
		{"if x<y then it rocks", "Jordan"},
		{"a<b", "Jordan"},
		{"<3 this <b>song</b> & the beat", "<Jay> & co"},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			cm, err := s.SubmitComment(ctx, Identity{DeviceKey: "d"}, ref, tt.body, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.body, cm.Content)
			assert.Equal(t, tt.name, cm.DisplayName)

			stored, err := s.GetComment(ctx, cm.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.body, stored.Content)
		})
	}
}

func TestEngagementOnDraftPost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	admin := newTestAdmin(t, s, "admin@example.com")
	draft := newTestPost(t, s, admin, "Unreleased", false).Ref()

	_, err := s.ToggleLike(ctx, Identity{DeviceKey: "d"}, draft)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.SubmitComment(ctx, Identity{DeviceKey: "d"}, draft, "Early listen", "Jordan")
	assert.ErrorIs(t, err, ErrNotFound)

	likes, err := s.ListLikes(ctx, draft)
	require.NoError(t, err)
	assert.Empty(t, likes)
	comments, err := s.ListComments(ctx, draft, false)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestSubmitCommentUnknownTarget(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.SubmitComment(context.Background(), Identity{DeviceKey: "d"},
		ContentRef{Kind: KindLyrics, ID: "nope"}, "Hello", "Jordan")
	assert.ErrorIs(t, err, ErrNotFound)
}
