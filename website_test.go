package website

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/NMFR/website/analytics"
	"github.com/NMFR/website/ratelimit"
)

// newServerApp assembles a full App the way Start does, minus listening:
// store, cache, analytics, middleware, and routes, with stub views.
func newServerApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := SiteConfig{
		Name:                  "Example Blog",
		URL:                   "https://example.com",
		Author:                "Jane Doe",
		Description:           "Notes",
		AdminPassword:         "hunter2",
		SessionSecret:         "0123456789abcdef",
		AnalyticsEnabled:      true,
		ContentDir:            filepath.Join(dir, "content"),
		StaticDir:             filepath.Join(dir, "public"),
		OutputDir:             filepath.Join(dir, "dist"),
		DatabasePath:          filepath.Join(dir, "site.db"),
		AnalyticsDatabasePath: filepath.Join(dir, "analytics.db"),
	}

	app := New(cfg, stubViews())
	t.Cleanup(func() { app.Close() })
	if err := app.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	posts := []Post{
		{Slug: "first", Title: "First", Description: "d", Date: "2024-01-15", Published: true},
		{Slug: "second", Title: "Second", Description: "d", Date: "2024-02-01", Published: true},
	}
	if err := app.Store.ReplacePosts(posts); err != nil {
		t.Fatalf("ReplacePosts: %v", err)
	}

	app.loginLimiter = ratelimit.New(5, time.Minute)

	store, err := analytics.NewStore(cfg.AnalyticsDatabasePath)
	if err != nil {
		t.Fatalf("analytics.NewStore: %v", err)
	}
	app.analyticsStore = store
	if err := analytics.InitSalt(store); err != nil {
		t.Fatalf("InitSalt: %v", err)
	}

	app.setupMiddleware()
	app.setupRoutes()
	return app
}

func serve(app *App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	return rec
}

func cookieNamed(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("response has no %q cookie", name)
	return nil
}

func TestServerPublicRoutes(t *testing.T) {
	app := newServerApp(t)

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET / status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "home") {
		t.Errorf("GET / body = %q, want home page", rec.Body.String())
	}

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/blog/first/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "post first") {
		t.Errorf("GET /blog/first/ status = %d body = %q", rec.Code, rec.Body.String())
	}

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/feed.xml", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /feed.xml status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<rss") {
		t.Error("GET /feed.xml should return an RSS document")
	}

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/blog/missing/", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /blog/missing/ status = %d, want 404", rec.Code)
	}
}

func TestServerAnalyticsCollect(t *testing.T) {
	app := newServerApp(t)

	body := `{"path":"/blog/first/","user_agent":"Mozilla/5.0 (X11; Linux x86_64) Firefox/140.0"}`
	req := httptest.NewRequest(http.MethodPost, "/api/analytics/collect", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(app, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("POST /api/analytics/collect status = %d, want 204", rec.Code)
	}

	visitors, err := app.analyticsStore.GetRealtimeVisitors()
	if err != nil {
		t.Fatalf("GetRealtimeVisitors: %v", err)
	}
	if visitors != 1 {
		t.Errorf("realtime visitors = %d, want 1", visitors)
	}
}

// The stats API is registered without trailing slashes, so the trailing
// slash middleware must pass it through to the analytics group instead of
// redirecting to a path no route serves.
func TestServerAnalyticsStatsRouting(t *testing.T) {
	app := newServerApp(t)

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/admin/analytics/api/stats", nil))
	if rec.Code == http.StatusMovedPermanently {
		t.Fatalf("stats API got a trailing-slash redirect to %q", rec.Header().Get("Location"))
	}
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/" {
		t.Errorf("unauthenticated stats request: status = %d location = %q, want 303 to /admin/",
			rec.Code, rec.Header().Get("Location"))
	}
}

func TestServerAdminLoginAndStats(t *testing.T) {
	app := newServerApp(t)

	// The login page issues the CSRF cookie the login form must echo back.
	rec := serve(app, httptest.NewRequest(http.MethodGet, "/admin/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /admin/ status = %d, want 200 login page", rec.Code)
	}
	csrf := cookieNamed(t, rec, "_csrf")

	form := url.Values{"password": {"hunter2"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRF-Token", csrf.Value)
	req.AddCookie(csrf)
	rec = serve(app, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d body = %q, want 303", rec.Code, rec.Body.String())
	}
	session := cookieNamed(t, rec, "admin_session")

	req = httptest.NewRequest(http.MethodGet, "/admin/analytics/api/stats?period=week", nil)
	req.AddCookie(session)
	rec = serve(app, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated stats status = %d body = %q, want 200", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "realtime_visitors") {
		t.Errorf("stats body = %q, want JSON stats response", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/analytics/api/bot-stats?period=week", nil)
	req.AddCookie(session)
	rec = serve(app, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated bot-stats status = %d, want 200", rec.Code)
	}
}

func TestServerWrongPasswordStaysOnLogin(t *testing.T) {
	app := newServerApp(t)

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/admin/", nil))
	csrf := cookieNamed(t, rec, "_csrf")

	form := url.Values{"password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRF-Token", csrf.Value)
	req.AddCookie(csrf)
	rec = serve(app, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed login status = %d, want 200 login page", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "admin_session" && c.MaxAge >= 0 {
			t.Error("failed login must not issue a session cookie")
		}
	}
}
