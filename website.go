// Package website is a personal blog publishing engine built with Go, Echo,
// and templ. Content is authored as markdown files with frontmatter, run
// through an ordered transformation pipeline, indexed in SQLite, and either
// served directly or exported as a static site with sitemap, RSS feed, and
// web manifest. A privacy-first analytics collector ships alongside.
package website

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/NMFR/website/analytics"
	"github.com/NMFR/website/content"
	"github.com/NMFR/website/pipeline"
	"github.com/NMFR/website/ratelimit"
)

// ViewFuncs holds the templ components the engine calls when rendering
// pages. The cmd wires in the site's own views; tests can substitute stubs.
type ViewFuncs struct {
	Home           func(cfg SiteConfig, posts []Post, activeTag string, tags []string) templ.Component
	Post           func(cfg SiteConfig, post Post, related []Post) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(posts []Post, problems []string, message string, csrfToken string) templ.Component
	AdminImages    func(images []Image, csrfToken string) templ.Component
	NotFound       func(cfg SiteConfig) templ.Component
	ServerError    func(cfg SiteConfig) templ.Component
}

// App is the central application. It wires together the content loader, the
// transformation pipeline, the store, cache, handlers, middleware, and views.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *Store
	Cache    *PostCache
	Pipeline *pipeline.Pipeline
	Views    ViewFuncs

	loginLimiter   *ratelimit.Limiter
	analyticsStore *analytics.Store
	customRoutes   []func(*App)

	problemsMu sync.RWMutex
	problems   []content.Problem
}

// New creates a new App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  views,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init validates the configuration and opens the store and pipeline. It is
// shared by serve and the static build; Start calls it implicitly.
func (a *App) Init() error {
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("website: invalid config: %w", err)
	}

	p, err := pipeline.New(a.Config.Plugins)
	if err != nil {
		return fmt.Errorf("website: init pipeline: %w", err)
	}
	a.Pipeline = p

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("website: init store: %w", err)
	}
	a.Store = store

	a.Cache = NewPostCache(a.Store, a.Config.PostCacheTTL)
	return nil
}

// ReloadContent loads the content directory, runs every valid document
// through the transformation pipeline, and replaces the post index. Files
// that fail to parse or validate are recorded as problems and skipped; they
// remain visible on the admin dashboard.
func (a *App) ReloadContent() error {
	docs, problems, err := content.Load(a.Config.ContentDir, a.Config.ContentGlob)
	if err != nil {
		return err
	}

	posts := make([]Post, 0, len(docs))
	for _, doc := range docs {
		post, err := a.transform(doc)
		if err != nil {
			problems = append(problems, content.Problem{Path: doc.Path, Err: err})
			continue
		}
		posts = append(posts, post)
	}

	if err := a.Store.ReplacePosts(posts); err != nil {
		return fmt.Errorf("website: index posts: %w", err)
	}
	a.Cache.Invalidate()

	a.problemsMu.Lock()
	a.problems = problems
	a.problemsMu.Unlock()
	for _, p := range problems {
		log.Printf("website: content problem: %s", p)
	}
	log.Printf("website: loaded %d posts (%d skipped) through pipeline [%v]",
		len(posts), len(problems), a.Pipeline.Steps())
	return nil
}

// transform maps a document through the pipeline into a Post.
func (a *App) transform(doc content.Document) (Post, error) {
	item := pipeline.Item{
		Slug:          doc.Slug(),
		Title:         doc.Matter.Title,
		Description:   doc.Matter.Description,
		Body:          doc.Body,
		FeaturedImage: doc.Matter.FeaturedImage,
	}
	if err := a.Pipeline.Apply(&item); err != nil {
		return Post{}, err
	}
	return Post{
		Slug:          item.Slug,
		Title:         item.Title,
		Description:   item.Description,
		Date:          doc.Matter.Date,
		Tags:          FilterEmpty(doc.Matter.Tags),
		FeaturedImage: item.FeaturedImage,
		Body:          item.Body,
		HTML:          item.HTML,
		Link:          "/blog/" + item.Slug,
		SourcePath:    doc.Path,
		Published:     doc.Matter.Published,
	}, nil
}

// Problems returns the content problems recorded by the last reload.
func (a *App) Problems() []string {
	a.problemsMu.RLock()
	defer a.problemsMu.RUnlock()
	out := make([]string, len(a.problems))
	for i, p := range a.problems {
		out[i] = p.String()
	}
	return out
}

// Start initializes the engine, loads content, starts the content watcher,
// and serves HTTP until the server is shut down.
func (a *App) Start() error {
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("website: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("website: SessionSecret is required")
	}

	if err := a.Init(); err != nil {
		return err
	}

	if err := a.ReloadContent(); err != nil {
		return err
	}

	a.loginLimiter = ratelimit.New(5, time.Minute)

	if a.Config.AnalyticsEnabled {
		analyticsStore, err := analytics.NewStore(a.Config.AnalyticsDatabasePath)
		if err != nil {
			return fmt.Errorf("website: init analytics: %w", err)
		}
		a.analyticsStore = analyticsStore
		if err := analytics.InitSalt(analyticsStore); err != nil {
			return fmt.Errorf("website: init analytics salt: %w", err)
		}
		stopCleanup := analyticsStore.StartCleanupScheduler(365, 24*time.Hour)
		defer stopCleanup()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.watchContent(ctx)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// watchContent reloads the index whenever the content directory changes.
func (a *App) watchContent(ctx context.Context) {
	w, err := content.NewWatcher(a.Config.ContentDir, 500*time.Millisecond)
	if err != nil {
		log.Printf("website: content watcher disabled: %v", err)
		return
	}
	err = w.Start(ctx, func() {
		if err := a.ReloadContent(); err != nil {
			log.Printf("website: reload content: %v", err)
		}
	})
	if err != nil && err != context.Canceled {
		log.Printf("website: content watcher stopped: %v", err)
	}
}

func (a *App) setupRoutes() {
	e := a.Echo

	// User's static assets
	e.Static("/public", a.Config.StaticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/manifest.webmanifest", a.handleManifest)
	e.GET("/blog", handleBlogRedirect)
	e.GET("/", a.handleHome)
	e.GET("/blog/:slug/", a.handlePost)

	// Admin routes
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.GET("/admin/preview/:slug/", a.handleAdminPreview)
	e.POST("/admin/reload/", a.handleAdminReload)
	e.POST("/admin/rebuild/", a.handleAdminRebuild)
	e.GET("/admin/images/", a.handleImageList)
	e.POST("/admin/images/upload/", a.handleImageUpload)
	e.DELETE("/admin/images/:filename/", a.handleImageDelete)

	// Analytics routes
	if a.Config.AnalyticsEnabled && a.analyticsStore != nil {
		analyticsHandler := analytics.NewHandler(a.analyticsStore)
		analyticsAuthMiddleware := func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				if !IsAdmin(c) {
					return c.Redirect(http.StatusSeeOther, "/admin/")
				}
				return next(c)
			}
		}
		analyticsHandler.RegisterRoutes(e, analyticsAuthMiddleware)
	}
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		a.Store.Close()
	}
	if a.analyticsStore != nil {
		a.analyticsStore.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("website: required environment variable %s is not set", key)
	}
	return v
}
