package duosite

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// commentResponse is the JSON shape of a submitted comment.
type commentResponse struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	ParentID    string    `json:"parent_id"`
	Content     string    `json:"content"`
	DisplayName string    `json:"display_name"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"created_at"`
}

func newCommentResponse(cm Comment) commentResponse {
	return commentResponse{
		ID:          cm.ID,
		Kind:        string(cm.Parent.Kind),
		ParentID:    cm.Parent.ID,
		Content:     cm.Content,
		DisplayName: cm.DisplayName,
		State:       string(cm.State),
		CreatedAt:   cm.CreatedAt,
	}
}

func (a *App) handleLike(kind ContentKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		ref := ContentRef{Kind: kind, ID: c.Param("id")}
		res, err := a.Store.ToggleLike(c.Request().Context(), CurrentIdentity(c), ref)
		if err != nil {
			return a.engagementFailure(c, ref, err, "Could not update your like. Please try again.")
		}
		a.Metrics.likeToggled(kind, res)
		a.invalidateFeed(c)
		if wantsJSON(c) {
			return c.JSON(http.StatusOK, res)
		}
		return redirectBack(c, ref.Path())
	}
}

func (a *App) handleComment(kind ContentKind) echo.HandlerFunc {
	return func(c echo.Context) error {
		ref := ContentRef{Kind: kind, ID: c.Param("id")}
		cm, err := a.Store.SubmitComment(c.Request().Context(), CurrentIdentity(c), ref,
			c.FormValue("content"), c.FormValue("name"))
		if err != nil {
			return a.engagementFailure(c, ref, err, "Could not post your comment. Please try again.")
		}
		a.Metrics.commentSubmitted(cm)
		a.invalidateFeed(c)
		if wantsJSON(c) {
			return c.JSON(http.StatusCreated, newCommentResponse(cm))
		}
		if a.approvedOnly() {
			AddNotice(c, "Thanks! Your comment will appear once it has been approved.")
		} else {
			AddNotice(c, "Thanks for your comment!")
		}
		return c.Redirect(http.StatusSeeOther, ref.Path()+"#comments")
	}
}

// engagementFailure reports a failed like or comment. Validation problems are
// shown to the visitor as is; store failures are logged and reported as
// fallback followed by the error text. Nothing is assumed to have changed.
func (a *App) engagementFailure(c echo.Context, ref ContentRef, err error, fallback string) error {
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		if wantsJSON(c) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
		}
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	case errors.As(err, &ve):
		if wantsJSON(c) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": ve.Message, "field": ve.Field})
		}
		AddNotice(c, ve.Message)
	default:
		c.Logger().Errorf("engagement on %s: %v", ref, err)
		if wantsJSON(c) {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": fallback, "detail": err.Error()})
		}
		AddNotice(c, fallback+" ("+err.Error()+")")
	}
	return redirectBack(c, ref.Path())
}
