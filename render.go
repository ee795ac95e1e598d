package duosite

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// page assembles the shared page context. Reading the notices consumes them.
func (a *App) page(c echo.Context, title string) Page {
	id := CurrentIdentity(c)
	return Page{
		Site: a.Config,
		Meta: PageMeta{
			Title:       title,
			Description: a.Config.Description,
			URL:         BuildURL(a.Config.URL, c.Request().URL.Path),
			OGType:      "website",
		},
		Identity: id,
		IsAdmin:  id.Authenticated() && a.Store.IsAdmin(c.Request().Context(), id),
		Notices:  TakeNotices(c),
		CSRF:     CsrfToken(c),
	}
}

// wantsJSON reports whether the client asked for a JSON answer instead of
// a redirect.
func wantsJSON(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// redirectBack sends the browser to the local page it came from, or to
// fallback when the referer is missing or points elsewhere.
func redirectBack(c echo.Context, fallback string) error {
	target := fallback
	if ref, err := url.Parse(c.Request().Referer()); err == nil && ref.Path != "" &&
		(ref.Host == "" || ref.Host == c.Request().Host) && strings.HasPrefix(ref.Path, "/") {
		target = ref.Path
	}
	return c.Redirect(http.StatusSeeOther, target)
}
