package duosite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thxtduo/duosite/analytics"
)

const browserUA = "Mozilla/5.0 (X11; Linux x86_64) Firefox/125.0"

func text(format string, args ...any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, format, args...)
		return err
	})
}

// stubViews renders plain text so tests can assert on what handlers pass in.
func stubViews() ViewFuncs {
	return ViewFuncs{
		Home: func(p Page, feed Feed) templ.Component {
			return text("home posts=%d quotes=%d notices=%s", len(feed.Posts), len(feed.Quotes), strings.Join(p.Notices, "|"))
		},
		BlogPost: func(p Page, post PostRow, comments []Comment) templ.Component {
			return text("post %s likes=%d liked=%v comments=%d", post.Title, post.Likes, post.Liked, len(comments))
		},
		LyricsQuote: func(p Page, q QuoteRow, comments []Comment) templ.Component {
			return text("quote %s comments=%d", q.Song, len(comments))
		},
		Auth: func(p Page, form AuthForm) templ.Component {
			return text("auth mode=%s error=%s", form.Mode, form.Error)
		},
		Dashboard: func(p Page, posts []PostRow, quotes []QuoteRow) templ.Component {
			return text("dashboard posts=%d quotes=%d", len(posts), len(quotes))
		},
		PostForm: func(p Page, post BlogPost, images []Image, formErr string) templ.Component {
			return text("post form error=%s", formErr)
		},
		QuoteForm: func(p Page, q LyricsQuote, images []Image, formErr string) templ.Component {
			return text("quote form error=%s", formErr)
		},
		Comments: func(p Page, items []ModerationItem, filter ModerationState) templ.Component {
			return text("comments n=%d filter=%s", len(items), filter)
		},
		Analytics: func(p Page, r analytics.Report) templ.Component {
			return text("analytics days=%d", r.Days)
		},
		Images: func(p Page, images []Image) templ.Component {
			return text("images n=%d", len(images))
		},
		Profile: func(p Page, profile Profile, formErr string) templ.Component {
			return text("profile %s error=%s", profile.Username, formErr)
		},
		NotFound:    func() templ.Component { return text("not found") },
		ServerError: func() templ.Component { return text("server error") },
	}
}

type testSite struct {
	t      *testing.T
	app    *App
	server *httptest.Server
}

func newTestSite(t *testing.T, cfg SiteConfig) *testSite {
	t.Helper()
	cfg.SessionSecret = "test-secret-test-secret-test-sec"
	cfg.MetricsEnabled = true
	store := setupTestStore(t)
	app := New(cfg, stubViews(), WithStore(store), WithStaticDir(t.TempDir()))
	require.NoError(t, app.Setup(context.Background()))
	server := httptest.NewServer(app.Echo)
	t.Cleanup(func() {
		server.Close()
		app.loginLimiter.Stop()
	})
	return &testSite{t: t, app: app, server: server}
}

// visitor is a cookie-keeping browser that does not follow redirects.
type visitor struct {
	site   *testSite
	client *http.Client
}

func (s *testSite) visitor() *visitor {
	jar, err := cookiejar.New(nil)
	require.NoError(s.t, err)
	return &visitor{site: s, client: &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

func (v *visitor) do(req *http.Request) (*http.Response, string) {
	v.site.t.Helper()
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", browserUA)
	}
	res, err := v.client.Do(req)
	require.NoError(v.site.t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(v.site.t, err)
	return res, string(body)
}

func (v *visitor) get(path string) (*http.Response, string) {
	req, err := http.NewRequest(http.MethodGet, v.site.server.URL+path, nil)
	require.NoError(v.site.t, err)
	return v.do(req)
}

// csrf returns the visitor's CSRF token, fetching a page first if needed.
func (v *visitor) csrf() string {
	u, _ := url.Parse(v.site.server.URL)
	for i := 0; i < 2; i++ {
		for _, c := range v.client.Jar.Cookies(u) {
			if c.Name == "_csrf" {
				return c.Value
			}
		}
		v.get("/healthz")
	}
	v.site.t.Fatal("no csrf cookie issued")
	return ""
}

func (v *visitor) post(path string, form url.Values) (*http.Response, string) {
	if form == nil {
		form = url.Values{}
	}
	form.Set("_csrf", v.csrf())
	req, err := http.NewRequest(http.MethodPost, v.site.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(v.site.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return v.do(req)
}

func (v *visitor) postJSON(path string, form url.Values) (*http.Response, string) {
	if form == nil {
		form = url.Values{}
	}
	req, err := http.NewRequest(http.MethodPost, v.site.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(v.site.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-CSRF-Token", v.csrf())
	return v.do(req)
}

func (v *visitor) signIn(email, password string) *http.Response {
	res, _ := v.post("/auth/signin/", url.Values{"email": {email}, "password": {password}})
	return res
}

func TestDashboardGate(t *testing.T) {
	site := newTestSite(t, SiteConfig{})
	ctx := context.Background()
	_, err := site.app.Store.EnsureAdmin(ctx, "admin@example.com", "admin-password")
	require.NoError(t, err)

	t.Run("no session", func(t *testing.T) {
		res, _ := site.visitor().get("/dashboard/")
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, "/auth/", res.Header.Get("Location"))
	})

	t.Run("non-admin", func(t *testing.T) {
		v := site.visitor()
		res, _ := v.post("/auth/signup/", url.Values{"email": {"fan@example.com"}, "password": {"password123"}})
		require.Equal(t, http.StatusSeeOther, res.StatusCode)

		res, _ = v.get("/dashboard/")
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, "/", res.Header.Get("Location"))

		_, body := v.get("/")
		assert.Contains(t, body, NoticeNoAdmin)
		_, body = v.get("/")
		assert.NotContains(t, body, NoticeNoAdmin, "notices are shown once")
	})

	t.Run("admin", func(t *testing.T) {
		v := site.visitor()
		res := v.signIn("admin@example.com", "admin-password")
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, "/dashboard/", res.Header.Get("Location"))

		res, body := v.get("/dashboard/")
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, "dashboard")
		assert.Equal(t, "no-store", res.Header.Get("Cache-Control"))

		res, body = v.get("/dashboard/analytics/?days=7")
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, "analytics days=7")
	})
}

func TestSignInFailures(t *testing.T) {
	site := newTestSite(t, SiteConfig{})
	_, err := site.app.Store.SignUp(context.Background(), "fan@example.com", "password123")
	require.NoError(t, err)
	v := site.visitor()

	res, body := v.post("/auth/signin/", url.Values{"email": {"fan@example.com"}, "password": {"nope-nope"}})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, body, "Invalid email or password.")

	for i := 0; i < 5; i++ {
		v.post("/auth/signin/", url.Values{"email": {"fan@example.com"}, "password": {"nope-nope"}})
	}
	res, _ = v.post("/auth/signin/", url.Values{"email": {"fan@example.com"}, "password": {"password123"}})
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
}

func TestCSRFRequired(t *testing.T) {
	site := newTestSite(t, SiteConfig{})
	req, err := http.NewRequest(http.MethodPost, site.server.URL+"/auth/signin/", strings.NewReader("email=a@b.co&password=x"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res, _ := site.visitor().do(req)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestLikeEndpoint(t *testing.T) {
	site := newTestSite(t, SiteConfig{})
	admin := newTestAdmin(t, site.app.Store, "admin@example.com")
	post := newTestPost(t, site.app.Store, admin, "Likeable", true)
	v := site.visitor()

	var res LikeResult
	r, body := v.postJSON("/blog/"+post.ID+"/like/", nil)
	require.Equal(t, http.StatusOK, r.StatusCode, body)
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	assert.Equal(t, LikeResult{Liked: true, Count: 1}, res)

	_, body = v.get("/blog/" + post.ID + "/")
	assert.Contains(t, body, "likes=1 liked=true")

	_, body = v.postJSON("/blog/"+post.ID+"/like/", nil)
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	assert.Equal(t, LikeResult{Liked: false, Count: 0}, res)

	r, _ = v.postJSON("/blog/missing/like/", nil)
	assert.Equal(t, http.StatusNotFound, r.StatusCode)

	r, _ = v.post("/blog/"+post.ID+"/like/", nil)
	assert.Equal(t, http.StatusSeeOther, r.StatusCode)
	assert.Equal(t, "/blog/"+post.ID+"/", r.Header.Get("Location"))
}

func TestEngagementStoreFailure(t *testing.T) {
	site := newTestSite(t, SiteConfig{})
	admin := newTestAdmin(t, site.app.Store, "admin@example.com")
	post := newTestPost(t, site.app.Store, admin, "Broken", true)
	_, err := site.app.Store.db.Exec(`CREATE TRIGGER likes_frozen BEFORE INSERT ON likes
		BEGIN SELECT RAISE(ABORT, 'likes are frozen'); END`)
	require.NoError(t, err)
	v := site.visitor()

	r, body := v.postJSON("/blog/"+post.ID+"/like/", nil)
	assert.Equal(t, http.StatusInternalServerError, r.StatusCode)
	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, "Could not update your like. Please try again.", out["error"])
	assert.Contains(t, out["detail"], "likes are frozen")

	r, _ = v.post("/blog/"+post.ID+"/like/", nil)
	assert.Equal(t, http.StatusSeeOther, r.StatusCode)
	_, body = v.get("/")
	assert.Contains(t, body, "Could not update your like. Please try again. (insert like:")
	assert.Contains(t, body, "likes are frozen")
}

func TestCommentEndpoint(t *testing.T) {
	site := newTestSite(t, SiteConfig{Comments: CommentsApprovedOnly})
	admin := newTestAdmin(t, site.app.Store, "admin@example.com")
	quote := newTestQuote(t, site.app.Store, admin)
	v := site.visitor()
	path := "/lyrics/" + quote.ID + "/comments/"

	r, body := v.postJSON(path, url.Values{"content": {"Beautiful"}, "name": {"Jordan"}})
	require.Equal(t, http.StatusCreated, r.StatusCode, body)
	var cm commentResponse
	require.NoError(t, json.Unmarshal([]byte(body), &cm))
	assert.Equal(t, "pending", cm.State)
	assert.Equal(t, "Jordan", cm.DisplayName)
	assert.Equal(t, "lyrics", cm.Kind)

	r, body = v.postJSON(path, url.Values{"content": {"   "}, "name": {"Jordan"}})
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
	assert.Contains(t, body, "comment cannot be empty")

	r, _ = v.post(path, url.Values{"content": {"Again"}, "name": {"Jordan"}})
	assert.Equal(t, http.StatusSeeOther, r.StatusCode)
	assert.Equal(t, "/lyrics/"+quote.ID+"/#comments", r.Header.Get("Location"))

	// Pending comments stay hidden in approved-only mode.
	_, body = v.get("/lyrics/" + quote.ID + "/")
	assert.Contains(t, body, "comments=0")
}

func TestModerateEndpoint(t *testing.T) {
	site := newTestSite(t, SiteConfig{})
	ctx := context.Background()
	_, err := site.app.Store.EnsureAdmin(ctx, "admin@example.com", "admin-password")
	require.NoError(t, err)
	acc, err := site.app.Store.GetAccountByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	admin := Identity{UserID: acc.ID, Email: acc.Email}
	post := newTestPost(t, site.app.Store, admin, "Thread", true)
	cm, err := site.app.Store.SubmitComment(ctx, Identity{DeviceKey: "d"}, post.Ref(), "Hello", "Jordan")
	require.NoError(t, err)

	v := site.visitor()
	v.signIn("admin@example.com", "admin-password")

	r, body := v.postJSON("/dashboard/comments/"+cm.ID+"/approve/", nil)
	require.Equal(t, http.StatusOK, r.StatusCode, body)
	assert.Contains(t, body, `"state":"approved"`)

	r, _ = v.post("/dashboard/comments/"+cm.ID+"/reject/", nil)
	assert.Equal(t, http.StatusSeeOther, r.StatusCode)
	got, err := site.app.Store.GetComment(ctx, cm.ID)
	require.NoError(t, err)
	assert.Equal(t, StateRejected, got.State)

	_, body = v.get("/dashboard/comments/?status=rejected")
	assert.Contains(t, body, "comments n=1 filter=rejected")
}

func TestPublicPages(t *testing.T) {
	site := newTestSite(t, SiteConfig{Name: "ThxtDuo", URL: "https://thxtduo.example"})
	admin := newTestAdmin(t, site.app.Store, "admin@example.com")
	post := newTestPost(t, site.app.Store, admin, "Release Day", true)
	v := site.visitor()

	res, body := v.get("/blog/" + post.ID + "/")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "post Release Day")

	res, _ = v.get("/blog/missing/")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	got, err := site.app.Store.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ViewsCount, "both visits are counted")

	req, _ := http.NewRequest(http.MethodGet, site.server.URL+"/blog/"+post.ID+"/", nil)
	req.Header.Set("User-Agent", "Googlebot/2.1")
	v.do(req)
	got, _ = site.app.Store.GetPost(context.Background(), post.ID)
	assert.Equal(t, 2, got.ViewsCount, "crawlers are not counted")

	_, body = v.get("/feed.xml")
	assert.Contains(t, body, "<title>Release Day</title>")
	assert.Contains(t, body, "https://thxtduo.example/blog/"+post.ID+"/")

	_, body = v.get("/sitemap.xml")
	assert.Contains(t, body, "https://thxtduo.example/blog/"+post.ID+"/")

	_, body = v.get("/robots.txt")
	assert.Contains(t, body, "Sitemap: https://thxtduo.example/sitemap.xml")

	res, body = v.get("/healthz")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "ok")

	res, body = v.get("/metrics")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "duosite_http_requests_total")

	res, _ = v.get("/public/duosite.js")
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
