package website

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/a-h/templ"
)

func stubViews() ViewFuncs {
	page := func(label string) templ.Component {
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			_, err := fmt.Fprintf(w, "<html><body>%s</body></html>", label)
			return err
		})
	}
	return ViewFuncs{
		Home: func(cfg SiteConfig, posts []Post, activeTag string, tags []string) templ.Component {
			return page("home")
		},
		Post: func(cfg SiteConfig, post Post, related []Post) templ.Component {
			return page("post " + post.Slug)
		},
		AdminLogin: func(showError bool, csrfToken string) templ.Component {
			return page("login")
		},
		AdminDashboard: func(posts []Post, problems []string, message string, csrfToken string) templ.Component {
			return page("dashboard")
		},
		AdminImages: func(images []Image, csrfToken string) templ.Component {
			return page("images")
		},
		NotFound:    func(cfg SiteConfig) templ.Component { return page("404") },
		ServerError: func(cfg SiteConfig) templ.Component { return page("500") },
	}
}

func TestExport(t *testing.T) {
	workDir := t.TempDir()
	cfg := SiteConfig{
		Name:         "Example Blog",
		URL:          "https://example.com",
		Author:       "Jane Doe",
		Description:  "Notes",
		OutputDir:    filepath.Join(workDir, "dist"),
		StaticDir:    filepath.Join(workDir, "public"),
		DatabasePath: filepath.Join(workDir, "data", "site.db"),
		ContentDir:   filepath.Join(workDir, "content"),
	}
	cfg.setDefaults()

	// One static asset to copy.
	if err := os.MkdirAll(cfg.StaticDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.StaticDir, "styles.css"), []byte("body {}"), 0o644); err != nil {
		t.Fatal(err)
	}

	app := New(cfg, stubViews())
	defer app.Close()
	if err := app.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	posts := []Post{
		{Slug: "first", Title: "First", Description: "d", Date: "2024-01-15", Published: true},
		{Slug: "second", Title: "Second", Description: "d", Date: "2024-02-01", Published: true},
		{Slug: "draft", Title: "Draft", Description: "d", Date: "2024-03-01", Published: false},
	}
	if err := app.Store.ReplacePosts(posts); err != nil {
		t.Fatalf("ReplacePosts: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	result, err := app.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if result.Pages != 3 {
		t.Errorf("Pages = %d, want 3 (home + two published posts)", result.Pages)
	}
	if result.Assets != 1 {
		t.Errorf("Assets = %d, want 1", result.Assets)
	}
	if result.String() == "" {
		t.Error("result summary should not be empty")
	}

	wantFiles := []string{
		"index.html",
		filepath.Join("blog", "first", "index.html"),
		filepath.Join("blog", "second", "index.html"),
		"sitemap.xml",
		"feed.xml",
		"manifest.webmanifest",
		"robots.txt",
		filepath.Join("public", "styles.css"),
	}
	for _, rel := range wantFiles {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, rel)); err != nil {
			t.Errorf("expected output file %s: %v", rel, err)
		}
	}

	// Drafts stay out of the export.
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "blog", "draft", "index.html")); !os.IsNotExist(err) {
		t.Error("draft post should not be exported")
	}

	// A second export against the same content skips every unchanged output.
	again, err := app.Export(ctx)
	if err != nil {
		t.Fatalf("second Export: %v", err)
	}
	if again.Pages != 0 || again.Assets != 0 {
		t.Errorf("second export rewrote %d pages and %d assets, want 0 and 0", again.Pages, again.Assets)
	}
	if again.Skipped == 0 {
		t.Error("second export should report skipped outputs")
	}

	// Removing an output file invalidates the checksum skip for it.
	if err := os.Remove(filepath.Join(cfg.OutputDir, "index.html")); err != nil {
		t.Fatal(err)
	}
	third, err := app.Export(ctx)
	if err != nil {
		t.Fatalf("third Export: %v", err)
	}
	if third.Pages != 1 {
		t.Errorf("third export Pages = %d, want 1 (restored home page)", third.Pages)
	}
}

func TestPostCache(t *testing.T) {
	s := setupTestStore(t)
	if err := s.SavePost(Post{Slug: "a", Title: "A", Description: "d", Date: "2024-01-01", Tags: []string{"go"}, Published: true}); err != nil {
		t.Fatal(err)
	}

	cache := NewPostCache(s, time.Minute)

	posts, err := cache.ListPosts("")
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}

	// A write behind the cache is invisible until invalidation.
	if err := s.SavePost(Post{Slug: "b", Title: "B", Description: "d", Date: "2024-01-02", Published: true}); err != nil {
		t.Fatal(err)
	}
	posts, _ = cache.ListPosts("")
	if len(posts) != 1 {
		t.Errorf("cache should still return 1 post, got %d", len(posts))
	}

	cache.Invalidate()
	posts, _ = cache.ListPosts("")
	if len(posts) != 2 {
		t.Errorf("after invalidation got %d posts, want 2", len(posts))
	}

	if _, err := cache.GetPost("missing"); err != ErrNotFound {
		t.Errorf("GetPost(missing) err = %v, want ErrNotFound", err)
	}
}
