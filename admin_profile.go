package duosite

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (a *App) handleProfile(c echo.Context) error {
	profile, err := a.Store.GetProfile(c.Request().Context(), CurrentIdentity(c).UserID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return Render(c, a.Views.Profile(a.page(c, "Profile"), profile, ""))
}

func (a *App) handleProfileSave(c echo.Context) error {
	in := Profile{
		Username:  c.FormValue("username"),
		FullName:  c.FormValue("full_name"),
		Bio:       c.FormValue("bio"),
		AvatarURL: c.FormValue("avatar_url"),
	}
	if _, err := a.Store.UpdateProfile(c.Request().Context(), CurrentIdentity(c), in); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return RenderStatus(c, http.StatusBadRequest, a.Views.Profile(a.page(c, "Profile"), in, ve.Error()))
		}
		return err
	}
	AddNotice(c, "Profile saved.")
	return c.Redirect(http.StatusSeeOther, "/dashboard/profile/")
}
