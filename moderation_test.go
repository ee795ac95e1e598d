package duosite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetApprovalLastDecisionWins(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	admin := newTestAdmin(t, s, "admin@example.com")
	ref := newTestPost(t, s, admin, "Moderated", true).Ref()
	cm, err := s.SubmitComment(ctx, Identity{DeviceKey: "d"}, ref, "Hi", "Jordan")
	require.NoError(t, err)

	_, err = s.SetApproval(ctx, admin, cm.ID, true)
	require.NoError(t, err)
	got, err := s.SetApproval(ctx, admin, cm.ID, false)
	require.NoError(t, err)
	assert.Equal(t, StateRejected, got.State)

	stored, err := s.GetComment(ctx, cm.ID)
	require.NoError(t, err)
	assert.Equal(t, StateRejected, stored.State)
}

func TestSetApprovalAccess(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	admin := newTestAdmin(t, s, "admin@example.com")
	ref := newTestPost(t, s, admin, "Guarded", true).Ref()
	cm, err := s.SubmitComment(ctx, Identity{DeviceKey: "d"}, ref, "Hi", "Jordan")
	require.NoError(t, err)
	fan, err := s.SignUp(ctx, "fan@example.com", "password123")
	require.NoError(t, err)

	_, err = s.SetApproval(ctx, Identity{UserID: fan.ID, Email: fan.Email}, cm.ID, true)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.SetApproval(ctx, Identity{DeviceKey: "d"}, cm.ID, true)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = s.SetApproval(ctx, admin, "no-such-comment", true)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.SetApproval(ctx, admin, "", true)
	assert.True(t, IsValidation(err))

	stored, err := s.GetComment(ctx, cm.ID)
	require.NoError(t, err)
	assert.Equal(t, StatePending, stored.State, "failed attempts leave the comment untouched")
}

func TestListModerationQueue(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	admin := newTestAdmin(t, s, "admin@example.com")
	post := newTestPost(t, s, admin, "Queue Post", true)
	quote := newTestQuote(t, s, admin)

	onPost, err := s.SubmitComment(ctx, admin, post.Ref(), "On post", "Admin")
	require.NoError(t, err)
	_, err = s.SubmitComment(ctx, Identity{DeviceKey: "g"}, quote.Ref(), "On quote", "Guest")
	require.NoError(t, err)
	_, err = s.SetApproval(ctx, admin, onPost.ID, true)
	require.NoError(t, err)

	all, err := s.ListModerationQueue(ctx, admin, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	pending, err := s.ListModerationQueue(ctx, admin, StatePending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Take Off by ThxtDuo", pending[0].ParentTitle)
	assert.Empty(t, pending[0].AccountEmail)

	approved, err := s.ListModerationQueue(ctx, admin, StateApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "Queue Post", approved[0].ParentTitle)
	assert.Equal(t, "admin@example.com", approved[0].AccountEmail)

	_, err = s.ListModerationQueue(ctx, admin, "spam")
	assert.True(t, IsValidation(err))

	_, err = s.ListModerationQueue(ctx, Identity{DeviceKey: "g"}, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
