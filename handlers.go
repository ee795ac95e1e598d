package duosite

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/thxtduo/duosite/analytics"
)

func (a *App) handleHome(c echo.Context) error {
	feed, err := a.Cache.Get(c.Request().Context())
	if err != nil {
		return err
	}
	p := a.page(c, a.Config.Name)
	return Render(c, a.Views.Home(p, feed))
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	ref := ContentRef{Kind: KindBlog, ID: c.Param("id")}
	a.countView(c, ref)

	post, err := a.Store.GetPostRow(ctx, ref.ID, CurrentIdentity(c).ActorKey())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	comments, err := a.Store.ListComments(ctx, ref, a.approvedOnly())
	if err != nil {
		return err
	}
	p := a.page(c, post.Title)
	p.Meta.Description = post.Excerpt
	p.Meta.OGType = "article"
	return Render(c, a.Views.BlogPost(p, post, comments))
}

func (a *App) handleQuote(c echo.Context) error {
	ctx := c.Request().Context()
	ref := ContentRef{Kind: KindLyrics, ID: c.Param("id")}
	a.countView(c, ref)

	quote, err := a.Store.GetQuoteRow(ctx, ref.ID, CurrentIdentity(c).ActorKey())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	comments, err := a.Store.ListComments(ctx, ref, a.approvedOnly())
	if err != nil {
		return err
	}
	p := a.page(c, fmt.Sprintf("%s by %s", quote.Song, quote.Artist))
	p.Meta.Description = quote.Lyrics
	p.Meta.OGType = "article"
	return Render(c, a.Views.LyricsQuote(p, quote, comments))
}

func (a *App) approvedOnly() bool {
	return a.Config.Comments == CommentsApprovedOnly
}

// countView bumps the view counter for human visitors. Failures are logged
// and never block the page.
func (a *App) countView(c echo.Context, ref ContentRef) {
	if analytics.IsBot(c.Request().UserAgent()) {
		return
	}
	if err := a.Store.IncrementViews(c.Request().Context(), ref); err != nil {
		c.Logger().Warnf("count view of %s: %v", ref, err)
	}
}

func (a *App) handleSitemap(c echo.Context) error {
	feed, err := a.Cache.Get(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, feed)
}

func (a *App) handleFeed(c echo.Context) error {
	feed, err := a.Cache.Get(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, feed.Posts)
}

func handleBlogRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/#blog")
}

func (a *App) handleRobots(c echo.Context) error {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Disallow: /dashboard/\n")
	b.WriteString("Disallow: /auth/\n")
	fmt.Fprintf(&b, "\nSitemap: %s\n", strings.TrimSuffix(BuildURL(a.Config.URL, "sitemap.xml"), "/"))
	return c.String(http.StatusOK, b.String())
}

func (a *App) handleHealth(c echo.Context) error {
	if err := a.Store.Ping(c.Request().Context()); err != nil {
		c.Logger().Errorf("health check: %v", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	case IsValidation(err):
		a.Echo.DefaultHTTPErrorHandler(echo.NewHTTPError(http.StatusBadRequest, err.Error()), c)
		return
	case errors.Is(err, ErrForbidden):
		a.Echo.DefaultHTTPErrorHandler(echo.NewHTTPError(http.StatusForbidden, err.Error()), c)
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
