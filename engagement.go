package duosite

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	maxCommentRunes     = 2000
	maxDisplayNameRunes = 80
)

// ToggleLike flips the like of actor on ref. It tries to insert a like row
// and, when the unique (actor, item) index rejects it, deletes the existing
// row instead, so concurrent toggles never leave two rows for one pair.
func (s *Store) ToggleLike(ctx context.Context, actor Identity, ref ContentRef) (LikeResult, error) {
	if _, err := ParseContentKind(string(ref.Kind)); err != nil {
		return LikeResult{}, err
	}
	key := actor.ActorKey()
	if key == "" {
		return LikeResult{}, invalid("actor", "an account or client key is required to like")
	}
	if err := s.requireContent(ctx, ref); err != nil {
		return LikeResult{}, err
	}

	liked := true
	if err := s.insertLike(ctx, actor, ref); err != nil {
		if !isUniqueViolation(err) {
			return LikeResult{}, fmt.Errorf("insert like: %w", err)
		}
		if err := s.deleteLike(ctx, key, ref); err != nil {
			return LikeResult{}, err
		}
		liked = false
	}

	count, err := s.likeCount(ctx, ref)
	if err != nil {
		return LikeResult{}, err
	}
	return LikeResult{Liked: liked, Count: count}, nil
}

// cleanCommentInput trims a comment body and display name and validates them.
// The text is kept verbatim; views escape it on output. It never touches the
// store.
func cleanCommentInput(body, displayName string) (string, string, error) {
	body = strings.TrimSpace(body)
	displayName = strings.TrimSpace(displayName)
	switch {
	case body == "":
		return "", "", invalid("content", "comment cannot be empty")
	case displayName == "":
		return "", "", invalid("name", "name cannot be empty")
	case utf8.RuneCountInString(body) > maxCommentRunes:
		return "", "", invalid("content", fmt.Sprintf("comment must be at most %d characters", maxCommentRunes))
	case utf8.RuneCountInString(displayName) > maxDisplayNameRunes:
		return "", "", invalid("name", fmt.Sprintf("name must be at most %d characters", maxDisplayNameRunes))
	}
	return body, displayName, nil
}

// SubmitComment records a pending comment by author on ref.
func (s *Store) SubmitComment(ctx context.Context, author Identity, ref ContentRef, body, displayName string) (Comment, error) {
	body, displayName, err := cleanCommentInput(body, displayName)
	if err != nil {
		return Comment{}, err
	}
	if _, err := ParseContentKind(string(ref.Kind)); err != nil {
		return Comment{}, err
	}
	if err := s.requireContent(ctx, ref); err != nil {
		return Comment{}, err
	}

	now := s.now().UTC()
	cm := Comment{
		ID:          uuid.NewString(),
		Parent:      ref,
		Content:     body,
		UserID:      author.UserID,
		DisplayName: displayName,
		DeviceKey:   author.DeviceKey,
		State:       StatePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.insertComment(ctx, cm); err != nil {
		return Comment{}, err
	}
	return s.GetComment(ctx, cm.ID)
}
