package views

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	"github.com/thxtduo/duosite"
	"github.com/thxtduo/duosite/analytics"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func testPage() duosite.Page {
	return duosite.Page{
		Site:     duosite.SiteConfig{Name: "ThxtDuo", URL: "https://thxtduo.example"},
		Meta:     duosite.PageMeta{Title: "Home", URL: "https://thxtduo.example/", OGType: "website"},
		Identity: duosite.Identity{UserID: "u1", Email: "jordan@example.com"},
		Notices:  []string{"Comment submitted for review."},
		CSRF:     "tok123",
	}
}

func testPost() duosite.PostRow {
	return duosite.PostRow{
		BlogPost: duosite.BlogPost{
			ID:        "p1",
			Title:     "Studio Sessions",
			Excerpt:   "Behind the scenes",
			Content:   "## Day one\n\nWe *recorded* <script>alert(1)</script>",
			Author:    "Telvin",
			Published: true,
			CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		Counts: duosite.Counts{Likes: 3, Comments: 2, ApprovedComments: 1},
		Liked:  true,
	}
}

func TestDefaultCoversEveryView(t *testing.T) {
	v := reflect.ValueOf(Default())
	for i := range v.NumField() {
		if v.Field(i).IsNil() {
			t.Errorf("ViewFuncs.%s is nil", v.Type().Field(i).Name)
		}
	}
}

func TestLikeButtonState(t *testing.T) {
	post := testPost()
	post.Liked = false
	html := renderString(t, Default().BlogPost(testPage(), post, nil))
	if !strings.Contains(html, `class="like"`) || !strings.Contains(html, `aria-pressed="false"`) {
		t.Error("unliked post should render a plain like button")
	}
	if !strings.Contains(html, `"@type":"BlogPosting"`) {
		t.Error("post page missing structured data")
	}
}

func TestHome(t *testing.T) {
	feed := duosite.Feed{
		Posts: []duosite.PostRow{testPost()},
		Quotes: []duosite.QuoteRow{{
			LyricsQuote: duosite.LyricsQuote{ID: "q1", Lyrics: "line one\nline two", Song: "Take Off", Artist: "ThxtDuo"},
		}},
	}
	html := renderString(t, Default().Home(testPage(), feed))

	for _, want := range []string{
		"Welcome to",
		"Discover Our Music",
		"Meet the Artists",
		"Telvin Moore",
		`href="/blog/p1/"`,
		`href="/lyrics/q1/"`,
		"line one<br>line two",
		"Comment submitted for review.",
		`"@type":"MusicGroup"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("home missing %q", want)
		}
	}
}

func TestBlogPost(t *testing.T) {
	comments := []duosite.Comment{{ID: "c1", DisplayName: "Jordan", Content: "Great <b>track</b>", CreatedAt: time.Now()}}
	html := renderString(t, Default().BlogPost(testPage(), testPost(), comments))

	tests := []struct {
		want string
		desc string
	}{
		{`<h2 id="day-one">Day one</h2>`, "markdown body"},
		{`action="/blog/p1/like/"`, "like form"},
		{`action="/blog/p1/comments/"`, "comment form"},
		{`class="like liked"`, "liked state"},
		{`<span data-count>3</span>`, "like count"},
		{`value="tok123"`, "csrf token"},
		{"Great &lt;b&gt;track&lt;/b&gt;", "escaped comment"},
		{`value="jordan"`, "prefilled name"},
		{"Guest", "guest badge"},
		{"<title>Studio Sessions | ThxtDuo</title>", "title"},
	}
	for _, tt := range tests {
		if !strings.Contains(html, tt.want) {
			t.Errorf("%s: missing %q", tt.desc, tt.want)
		}
	}
	if strings.Contains(html, "<script>alert") {
		t.Error("post body must be sanitized")
	}
}

func TestLyricsQuote(t *testing.T) {
	q := duosite.QuoteRow{
		LyricsQuote: duosite.LyricsQuote{ID: "q1", Lyrics: "We rise", Song: "Take Off", Artist: "ThxtDuo", Meaning: "Hope"},
	}
	html := renderString(t, Default().LyricsQuote(testPage(), q, nil))
	for _, want := range []string{"We rise", "Meaning", "Hope", `action="/lyrics/q1/like/"`, "No comments yet."} {
		if !strings.Contains(html, want) {
			t.Errorf("quote missing %q", want)
		}
	}
	if strings.Contains(html, "The Story") {
		t.Error("empty story should not render its heading")
	}
}

func TestAuthModes(t *testing.T) {
	tests := []struct {
		form duosite.AuthForm
		want string
	}{
		{duosite.AuthForm{Mode: "signin"}, `action="/auth/signin/"`},
		{duosite.AuthForm{Mode: "signup"}, `action="/auth/signup/"`},
		{duosite.AuthForm{Mode: "signin", Error: "Invalid email or password."}, "Invalid email or password."},
	}
	for _, tt := range tests {
		html := renderString(t, Default().Auth(testPage(), tt.form))
		if !strings.Contains(html, tt.want) {
			t.Errorf("auth %+v missing %q", tt.form, tt.want)
		}
	}
}

func TestModerationQueue(t *testing.T) {
	items := []duosite.ModerationItem{{
		Comment: duosite.Comment{
			ID:          "c9",
			Parent:      duosite.ContentRef{Kind: duosite.KindLyrics, ID: "q1"},
			DisplayName: "Jordan",
			Content:     "Love it",
			State:       duosite.StatePending,
		},
		ParentTitle: "Take Off by ThxtDuo",
	}}
	html := renderString(t, Default().Comments(testPage(), items, duosite.StatePending))
	for _, want := range []string{
		`action="/dashboard/comments/c9/approve/"`,
		`action="/dashboard/comments/c9/reject/"`,
		"Take Off by ThxtDuo",
		`href="/lyrics/q1/"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("queue missing %q", want)
		}
	}
}

func TestAnalyticsPage(t *testing.T) {
	report := analytics.Report{
		Days:   7,
		Series: []analytics.EngagementDay{{Date: "2024-05-20", Comments: 2, Likes: 5}},
		Totals: analytics.Totals{Likes: 42, Pending: 3},
	}
	html := renderString(t, Default().Analytics(testPage(), report))
	for _, want := range []string{"2024-05-20", "<strong>42</strong>", `data-days="7"`, "/public/dashboard.js"} {
		if !strings.Contains(html, want) {
			t.Errorf("analytics missing %q", want)
		}
	}
}

func TestErrorPages(t *testing.T) {
	if html := renderString(t, Default().NotFound()); !strings.Contains(html, "404") {
		t.Error("not found page missing code")
	}
	if html := renderString(t, Default().ServerError()); !strings.Contains(html, "500") {
		t.Error("server error page missing code")
	}
}
