// Package duosite is the website of a music duo: a public marketing site
// with blog posts and lyrics highlights that visitors can like and comment
// on, plus an admin dashboard for content, comment moderation and
// engagement analytics.
//
// Templates are supplied through the ViewFuncs struct; duosite handles the
// handler logic, middleware, sessions and database operations.
package duosite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/thxtduo/duosite/analytics"
)

// Page is the per-request context every full page needs.
type Page struct {
	Site     SiteConfig
	Meta     PageMeta
	Identity Identity
	IsAdmin  bool
	Notices  []string
	CSRF     string
}

// ViewFuncs holds the templ components the App calls when rendering pages.
type ViewFuncs struct {
	Home        func(p Page, feed Feed) templ.Component
	BlogPost    func(p Page, post PostRow, comments []Comment) templ.Component
	LyricsQuote func(p Page, quote QuoteRow, comments []Comment) templ.Component
	Auth        func(p Page, form AuthForm) templ.Component

	Dashboard func(p Page, posts []PostRow, quotes []QuoteRow) templ.Component
	PostForm  func(p Page, post BlogPost, images []Image, formErr string) templ.Component
	QuoteForm func(p Page, quote LyricsQuote, images []Image, formErr string) templ.Component
	Comments  func(p Page, items []ModerationItem, filter ModerationState) templ.Component
	Analytics func(p Page, report analytics.Report) templ.Component
	Images    func(p Page, images []Image) templ.Component
	Profile   func(p Page, profile Profile, formErr string) templ.Component

	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App is the central duosite application. It wires together the store,
// feed cache, handlers, middleware, and templates.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Store   *Store
	Cache   FeedCache
	Views   ViewFuncs
	Metrics *Metrics

	loginLimiter *LoginLimiter
	redis        *redis.Client
	loc          *time.Location
	customRoutes []func(*App)
	staticDir    string
	ready        bool
}

// New creates a new App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		Metrics:   NewMetrics(),
		staticDir: "public",
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup opens the store, bootstraps the admin account, and installs
// middleware and routes. Start calls it; tests call it directly and then
// drive a.Echo as an http.Handler.
func (a *App) Setup(ctx context.Context) error {
	if a.ready {
		return nil
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("duosite: SessionSecret is required")
	}
	if _, err := ParseCommentVisibility(string(a.Config.Comments)); err != nil {
		return err
	}
	loc, err := a.Config.location()
	if err != nil {
		return err
	}
	a.loc = loc

	if a.Store == nil {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("duosite: init store: %w", err)
		}
		a.Store = store
	}

	if err := analytics.InitSalt(a.Store); err != nil {
		return fmt.Errorf("duosite: init client key salt: %w", err)
	}

	if a.Config.AdminEmail != "" && a.Config.AdminPassword != "" {
		admin, err := a.Store.EnsureAdmin(ctx, a.Config.AdminEmail, a.Config.AdminPassword)
		if err != nil {
			return fmt.Errorf("duosite: bootstrap admin: %w", err)
		}
		a.Echo.Logger.Infof("admin account ready: %s", admin.Email)
	}

	if a.Cache == nil {
		if err := a.setupCache(ctx); err != nil {
			return err
		}
	}

	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

func (a *App) setupCache(ctx context.Context) error {
	load := StoreFeedLoader(a.Store)
	if a.Config.RedisURL == "" {
		a.Cache = NewMemoryFeedCache(load, a.Config.FeedCacheTTL)
		return nil
	}
	client, err := NewRedisClient(ctx, a.Config.RedisURL)
	if err != nil {
		return fmt.Errorf("duosite: init feed cache: %w", err)
	}
	a.redis = client
	a.Cache = NewRedisFeedCache(client, load, a.Config.FeedCacheTTL, func(err error) {
		a.Echo.Logger.Warnf("feed cache: %v", err)
	})
	return nil
}

// Start initializes the App and starts the server.
func (a *App) Start() error {
	if err := a.Setup(context.Background()); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Embedded scripts are served under /public/ ahead of the static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS))))
	e.GET("/public/duosite.js", embeddedHandler)
	e.GET("/public/dashboard.js", embeddedHandler)

	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/healthz", a.handleHealth)
	if a.Config.MetricsEnabled {
		e.GET("/metrics", a.Metrics.handler())
	}

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/blog", handleBlogRedirect)
	e.GET("/blog/:id/", a.handlePost)
	e.GET("/lyrics/:id/", a.handleQuote)
	for _, kind := range []ContentKind{KindBlog, KindLyrics} {
		e.POST("/"+string(kind)+"/:id/like/", a.handleLike(kind))
		e.POST("/"+string(kind)+"/:id/comments/", a.handleComment(kind))
	}

	// Session routes
	e.GET("/auth/", a.handleAuth)
	e.POST("/auth/signin/", a.handleSignIn)
	e.POST("/auth/signup/", a.handleSignUp)
	e.POST("/auth/signout/", handleSignOut)

	// Admin routes
	d := e.Group("/dashboard", a.requireAdmin)
	d.GET("/", a.handleDashboard)
	d.GET("/posts/new/", a.handlePostForm)
	d.POST("/posts/", a.handleCreatePost)
	d.GET("/quotes/new/", a.handleQuoteForm)
	d.POST("/quotes/", a.handleCreateQuote)
	d.POST("/content/:kind/:id/delete/", a.handleDeleteContent)
	d.GET("/comments/", a.handleModerationQueue)
	d.POST("/comments/:id/approve/", a.handleModerate(true))
	d.POST("/comments/:id/reject/", a.handleModerate(false))
	d.GET("/images/", a.handleImageList)
	d.POST("/images/upload/", a.handleImageUpload)
	d.POST("/images/:filename/delete/", a.handleImageDelete)
	d.GET("/profile/", a.handleProfile)
	d.POST("/profile/", a.handleProfileSave)

	analyticsHandler := analytics.NewHandler(a.Store, a.loc, func(c echo.Context, r analytics.Report) templ.Component {
		return a.Views.Analytics(a.page(c, "Analytics"), r)
	})
	analyticsHandler.RegisterRoutes(d.Group("/analytics"))
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	var errs []error
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

// invalidateFeed drops the cached feed; failures are logged since the TTL
// bounds staleness anyway.
func (a *App) invalidateFeed(c echo.Context) {
	if err := a.Cache.Invalidate(c.Request().Context()); err != nil {
		c.Logger().Warnf("invalidate feed cache: %v", err)
	}
}
