package duosite

import (
	"context"
	"fmt"
)

// SetApproval moves a comment to approved or rejected on behalf of admin.
// Re-deciding an already reviewed comment is allowed; the last decision wins.
func (s *Store) SetApproval(ctx context.Context, admin Identity, commentID string, approve bool) (Comment, error) {
	if commentID == "" {
		return Comment{}, invalid("id", "comment id is required")
	}
	if err := s.requireAdmin(ctx, admin); err != nil {
		return Comment{}, err
	}
	state := StateRejected
	if approve {
		state = StateApproved
	}
	if err := s.updateCommentState(ctx, commentID, state, admin.UserID, s.now().UTC()); err != nil {
		return Comment{}, err
	}
	return s.GetComment(ctx, commentID)
}

// ListModerationQueue returns comments for review, newest first. An empty
// state lists every comment.
func (s *Store) ListModerationQueue(ctx context.Context, admin Identity, state ModerationState) ([]ModerationItem, error) {
	switch state {
	case "", StatePending, StateApproved, StateRejected:
	default:
		return nil, invalid("status", fmt.Sprintf("unknown moderation state %q", state))
	}
	if err := s.requireAdmin(ctx, admin); err != nil {
		return nil, err
	}
	return s.listModerationQueue(ctx, state)
}
