package duosite

import (
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/thxtduo/duosite/analytics"
)

const (
	sessionName = "duosite_session"
	identityKey = "duosite.identity"
)

// NoticeNoAdmin is flashed when a signed-in account without admin rights
// tries to enter the dashboard.
const NoticeNoAdmin = "You do not have admin privileges."

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Pre(middleware.NonWWWRedirect())

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	if a.Config.MetricsEnabled {
		e.Use(a.Metrics.requestMiddleware())
	}

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/public/")
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; font-src 'self'; connect-src 'self'; frame-src https://open.spotify.com https://embed.music.apple.com https://www.youtube.com",
		HSTSMaxAge:            31536000,
		HSTSExcludeSubdomains: false,
	}))

	e.Use(session.Middleware(a.newSessionStore()))

	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		ContextKey:     middleware.DefaultCSRFConfig.ContextKey,
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieSameSite: http.SameSiteLaxMode,
		CookieSecure:   a.Config.CookieSecure,
		ErrorHandler: func(err error, c echo.Context) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
	}))

	e.Use(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.HasPrefix(path, "/public") ||
				strings.HasPrefix(path, "/dashboard/analytics/api/") ||
				path == "/sitemap.xml" || path == "/feed.xml" || path == "/robots.txt" ||
				path == "/metrics" || path == "/healthz"
		},
	}))

	e.Use(cacheControlMiddleware)
	e.Use(identityMiddleware)
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		switch {
		case strings.HasPrefix(path, "/public/"):
			c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		case path == "/sitemap.xml" || path == "/feed.xml" || path == "/robots.txt":
			c.Response().Header().Set("Cache-Control", "public, max-age=3600")
		case strings.HasPrefix(path, "/dashboard") || strings.HasPrefix(path, "/auth"):
			c.Response().Header().Set("Cache-Control", "no-store")
		default:
			// pages carry the visitor's like state, notices and CSRF token
			c.Response().Header().Set("Cache-Control", "private, no-cache")
		}
		return next(c)
	}
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 12,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// identityMiddleware resolves the caller once per request.
func identityMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := Identity{DeviceKey: analytics.ClientKey(c.RealIP())}
		if sess, err := session.Get(sessionName, c); err == nil {
			id.UserID, _ = sess.Values["user_id"].(string)
			id.Email, _ = sess.Values["email"].(string)
		}
		c.Set(identityKey, id)
		return next(c)
	}
}

// CurrentIdentity returns the caller of the current request.
func CurrentIdentity(c echo.Context) Identity {
	id, _ := c.Get(identityKey).(Identity)
	return id
}

func setSessionAccount(c echo.Context, acc Account) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values["user_id"] = acc.ID
	sess.Values["email"] = acc.Email
	return sess.Save(c.Request(), c.Response())
}

func clearSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	delete(sess.Values, "user_id")
	delete(sess.Values, "email")
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// AddNotice queues a one-time message shown on the next rendered page.
func AddNotice(c echo.Context, msg string) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		c.Logger().Warnf("notice dropped: %v", err)
		return
	}
	sess.AddFlash(msg)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		c.Logger().Warnf("notice dropped: %v", err)
	}
}

// TakeNotices returns and clears the queued notices.
func TakeNotices(c echo.Context) []string {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return nil
	}
	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		c.Logger().Warnf("clear notices: %v", err)
	}
	out := make([]string, 0, len(flashes))
	for _, f := range flashes {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// requireAdmin gates the dashboard: no session goes to sign-in, a session
// without admin rights goes home with a notice. Lookup errors count as denial.
func (a *App) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := CurrentIdentity(c)
		access, err := a.Store.Authorize(c.Request().Context(), id)
		if err != nil {
			c.Logger().Errorf("admin check for %s: %v", id.Email, err)
		}
		switch access {
		case AccessNoSession:
			return c.Redirect(http.StatusSeeOther, "/auth/")
		case AccessAdmin:
			if err == nil {
				return next(c)
			}
		}
		AddNotice(c, NoticeNoAdmin)
		return c.Redirect(http.StatusSeeOther, "/")
	}
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
