package duosite

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (a *App) handleModerationQueue(c echo.Context) error {
	filter := ModerationState(c.QueryParam("status"))
	items, err := a.Store.ListModerationQueue(c.Request().Context(), CurrentIdentity(c), filter)
	if err != nil {
		if IsValidation(err) {
			return c.Redirect(http.StatusSeeOther, "/dashboard/comments/")
		}
		return err
	}
	return Render(c, a.Views.Comments(a.page(c, "Comments"), items, filter))
}

// handleModerate approves or rejects one comment. On failure the visitor
// gets a notice and the queue is shown unchanged.
func (a *App) handleModerate(approve bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		cm, err := a.Store.SetApproval(c.Request().Context(), CurrentIdentity(c), id, approve)
		switch {
		case errors.Is(err, ErrNotFound):
			AddNotice(c, "That comment no longer exists.")
		case err != nil:
			c.Logger().Errorf("moderate comment %s: %v", id, err)
			AddNotice(c, "Could not update the comment. Please try again.")
		default:
			a.Metrics.moderated(cm.State)
			a.invalidateFeed(c)
			if cm.State == StateApproved {
				AddNotice(c, "Comment approved.")
			} else {
				AddNotice(c, "Comment rejected.")
			}
		}
		if wantsJSON(c) {
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
			return c.JSON(http.StatusOK, map[string]string{"id": cm.ID, "state": string(cm.State)})
		}
		return redirectBack(c, "/dashboard/comments/")
	}
}
