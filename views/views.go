// Package views holds the site's templ components and the ViewFuncs that
// render them.
package views

import (
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/thxtduo/duosite"
	"github.com/thxtduo/duosite/markdown"
)

//go:generate templ generate

const summaryRunes = 160

var moderationStates = []duosite.ModerationState{
	duosite.StatePending,
	duosite.StateApproved,
	duosite.StateRejected,
}

func pageTitle(p duosite.Page) string {
	if p.Meta.Title == "" {
		return p.Site.Name
	}
	return p.Meta.Title + " | " + p.Site.Name
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func longDate(t time.Time) string { return t.Format("January 2, 2006") }

func dateTime(t time.Time) string { return t.Format("Jan 2, 2006 15:04") }

func isoDate(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// initial is the avatar letter for a commenter.
func initial(s string) string {
	for _, r := range s {
		return strings.ToUpper(string(r))
	}
	return "?"
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

// jsonLD embeds structured data. The payload comes from json.Marshal, which
// escapes <, > and & so it cannot close the script element.
func jsonLD(s string) templ.Component {
	return templ.Raw(`<script type="application/ld+json">` + s + `</script>`)
}

func deletePath(ref duosite.ContentRef) string {
	return "/dashboard/content/" + string(ref.Kind) + "/" + ref.ID + "/delete/"
}

// likeBox is the like button of one content item.
type likeBox struct {
	Path  string
	Liked bool
	Count int
	CSRF  string
}

// thread is the comment list and form of one content item.
type thread struct {
	Path     string
	CSRF     string
	Name     string
	Comments []duosite.Comment
}

func engagement(p duosite.Page, ref duosite.ContentRef, liked bool, likes int, comments []duosite.Comment) (likeBox, thread) {
	name, _, _ := strings.Cut(p.Identity.Email, "@")
	return likeBox{Path: ref.Path(), Liked: liked, Count: likes, CSRF: p.CSRF},
		thread{Path: ref.Path(), CSRF: p.CSRF, Name: name, Comments: comments}
}

// Default returns the ViewFuncs for the stock site components.
func Default() duosite.ViewFuncs {
	return duosite.ViewFuncs{
		Home: home,
		BlogPost: func(p duosite.Page, post duosite.PostRow, comments []duosite.Comment) templ.Component {
			p.Meta.Title = post.Title
			p.Meta.Description = post.Excerpt
			like, th := engagement(p, post.Ref(), post.Liked, post.Likes, comments)
			return blogPost(p, post, like, th)
		},
		LyricsQuote: func(p duosite.Page, quote duosite.QuoteRow, comments []duosite.Comment) templ.Component {
			p.Meta.Title = quote.Song + " by " + quote.Artist
			p.Meta.Description = markdown.Summary(quote.Lyrics, summaryRunes)
			like, th := engagement(p, quote.Ref(), quote.Liked, quote.Likes, comments)
			return lyricsQuote(p, quote, like, th)
		},
		Auth:      authPage,
		Dashboard: dashboard,
		PostForm:  postForm,
		QuoteForm: quoteForm,
		Comments:  moderation,
		Analytics: analyticsPage,
		Images:    imagesPage,
		Profile:   profilePage,
		NotFound: func() templ.Component {
			return errorPage(404, "Page not found", "The page you were looking for does not exist.")
		},
		ServerError: func() templ.Component {
			return errorPage(500, "Something went wrong", "Please try again in a moment.")
		},
	}
}
