package duosite

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (a *App) handleDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	actor := CurrentIdentity(c).ActorKey()
	posts, err := a.Store.ListPostRows(ctx, actor, false)
	if err != nil {
		return err
	}
	quotes, err := a.Store.ListQuoteRows(ctx, actor)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Dashboard(a.page(c, "Dashboard"), posts, quotes))
}

func (a *App) handlePostForm(c echo.Context) error {
	return a.renderPostForm(c, http.StatusOK, BlogPost{Published: true}, "")
}

func (a *App) renderPostForm(c echo.Context, code int, post BlogPost, formErr string) error {
	images, err := a.Store.ListImages(c.Request().Context())
	if err != nil {
		return err
	}
	return RenderStatus(c, code, a.Views.PostForm(a.page(c, "New blog post"), post, images, formErr))
}

func (a *App) handleCreatePost(c echo.Context) error {
	post := BlogPost{
		Title:     c.FormValue("title"),
		Excerpt:   c.FormValue("excerpt"),
		Content:   c.FormValue("content"),
		Author:    c.FormValue("author"),
		ImageURL:  c.FormValue("image_url"),
		Published: c.FormValue("published") != "",
	}
	if post.Author == "" {
		post.Author = CurrentIdentity(c).Email
	}
	created, err := a.Store.CreatePost(c.Request().Context(), CurrentIdentity(c), post)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return a.renderPostForm(c, http.StatusBadRequest, post, ve.Error())
		}
		return err
	}
	a.invalidateFeed(c)
	AddNotice(c, "Blog post \""+created.Title+"\" created.")
	return c.Redirect(http.StatusSeeOther, "/dashboard/")
}

func (a *App) handleQuoteForm(c echo.Context) error {
	return a.renderQuoteForm(c, http.StatusOK, LyricsQuote{}, "")
}

func (a *App) renderQuoteForm(c echo.Context, code int, quote LyricsQuote, formErr string) error {
	images, err := a.Store.ListImages(c.Request().Context())
	if err != nil {
		return err
	}
	return RenderStatus(c, code, a.Views.QuoteForm(a.page(c, "New lyrics quote"), quote, images, formErr))
}

func (a *App) handleCreateQuote(c echo.Context) error {
	quote := LyricsQuote{
		Lyrics:   c.FormValue("lyrics"),
		Song:     c.FormValue("song"),
		Artist:   c.FormValue("artist"),
		Meaning:  c.FormValue("meaning"),
		Story:    c.FormValue("story"),
		ImageURL: c.FormValue("image_url"),
	}
	created, err := a.Store.CreateQuote(c.Request().Context(), CurrentIdentity(c), quote)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return a.renderQuoteForm(c, http.StatusBadRequest, quote, ve.Error())
		}
		return err
	}
	a.invalidateFeed(c)
	AddNotice(c, "Lyrics quote from \""+created.Song+"\" created.")
	return c.Redirect(http.StatusSeeOther, "/dashboard/")
}

func (a *App) handleDeleteContent(c echo.Context) error {
	kind, err := ParseContentKind(c.Param("kind"))
	if err != nil {
		return err
	}
	ref := ContentRef{Kind: kind, ID: c.Param("id")}
	switch err := a.Store.DeleteContent(c.Request().Context(), CurrentIdentity(c), ref); {
	case errors.Is(err, ErrNotFound):
		AddNotice(c, "That item no longer exists.")
	case err != nil:
		c.Logger().Errorf("delete %s: %v", ref, err)
		AddNotice(c, "Could not delete the item. Please try again.")
	default:
		a.invalidateFeed(c)
		AddNotice(c, "Deleted.")
	}
	return c.Redirect(http.StatusSeeOther, "/dashboard/")
}
