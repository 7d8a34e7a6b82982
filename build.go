package website

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/a-h/templ"
)

// ExportResult reports what a static build produced.
type ExportResult struct {
	Pages    int
	Assets   int
	Skipped  int
	Duration time.Duration
}

func (r ExportResult) String() string {
	s := fmt.Sprintf("built %d pages and %d assets in %s", r.Pages, r.Assets, r.Duration.Round(time.Millisecond))
	if r.Skipped > 0 {
		s += fmt.Sprintf(" (%d unchanged)", r.Skipped)
	}
	return s
}

const (
	exportWorkers     = 4
	buildManifestName = ".buildmanifest.json"
)

// exporter tracks one static build: the checksum manifest from the previous
// build, the manifest being written, and what got skipped.
type exporter struct {
	app    *App
	outDir string

	mu      sync.Mutex
	prev    map[string]string
	next    map[string]string
	skipped int
}

// Export renders the whole site into the configured output directory:
// the home page, one page per published post, sitemap.xml, feed.xml,
// manifest.webmanifest, robots.txt, and a copy of the static dir. Outputs
// whose checksum matches the previous build's manifest are left untouched.
func (a *App) Export(ctx context.Context) (ExportResult, error) {
	start := time.Now()
	outDir := a.Config.OutputDir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return ExportResult{}, fmt.Errorf("website: create output dir: %w", err)
	}

	e := &exporter{
		app:    a,
		outDir: outDir,
		prev:   loadBuildManifest(filepath.Join(outDir, buildManifestName)),
		next:   make(map[string]string),
	}

	posts, err := a.Cache.ListPosts("")
	if err != nil {
		return ExportResult{}, err
	}
	tags, err := a.Cache.ListTags()
	if err != nil {
		return ExportResult{}, err
	}

	result := ExportResult{}

	wrote, err := e.writePage(ctx, "index.html", a.Views.Home(a.Config, posts, "", tags))
	if err != nil {
		return result, err
	}
	if wrote {
		result.Pages++
	}

	// Post pages, rendered concurrently. Rendering is CPU-bound template
	// work; a small fixed pool keeps ordering irrelevant and failure simple.
	pages, err := e.exportPosts(ctx, posts)
	result.Pages += pages
	if err != nil {
		return result, err
	}

	// Derived artifacts.
	if _, err := e.writeArtifact("sitemap.xml", func(w io.Writer) error {
		return a.WriteSitemap(w, posts)
	}); err != nil {
		return result, err
	}
	if _, err := e.writeArtifact("feed.xml", func(w io.Writer) error {
		return a.WriteFeed(w, posts)
	}); err != nil {
		return result, err
	}
	if _, err := e.writeArtifact("manifest.webmanifest", a.WriteManifest); err != nil {
		return result, err
	}
	if _, err := e.writeBytes("robots.txt", []byte(a.robotsTxt())); err != nil {
		return result, err
	}

	assets, err := e.copyStatic(ctx)
	result.Assets = assets
	if err != nil {
		return result, err
	}

	if err := e.saveManifest(); err != nil {
		return result, err
	}

	result.Skipped = e.skipped
	result.Duration = time.Since(start)
	return result, nil
}

func (e *exporter) exportPosts(ctx context.Context, posts []Post) (int, error) {
	jobs := make(chan Post)
	errs := make(chan error, exportWorkers)
	var built int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < exportWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for post := range jobs {
				related := FilterRelatedPosts(post, posts)
				page := e.app.Views.Post(e.app.Config, post, related)
				wrote, err := e.writePage(ctx, filepath.Join("blog", post.Slug, "index.html"), page)
				if err != nil {
					errs <- err
					return
				}
				if wrote {
					mu.Lock()
					built++
					mu.Unlock()
				}
			}
		}()
	}

loop:
	for _, post := range posts {
		select {
		case <-ctx.Done():
			break loop
		case err := <-errs:
			close(jobs)
			wg.Wait()
			return built, err
		case jobs <- post:
		}
	}
	close(jobs)
	wg.Wait()

	select {
	case err := <-errs:
		return built, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return built, err
	}
	return built, nil
}

func (e *exporter) writePage(ctx context.Context, rel string, page templ.Component) (bool, error) {
	var buf bytes.Buffer
	if err := page.Render(ctx, &buf); err != nil {
		return false, fmt.Errorf("website: render %s: %w", rel, err)
	}
	return e.writeBytes(rel, buf.Bytes())
}

func (e *exporter) writeArtifact(rel string, write func(io.Writer) error) (bool, error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return false, fmt.Errorf("website: build %s: %w", rel, err)
	}
	return e.writeBytes(rel, buf.Bytes())
}

// writeBytes records the output's checksum in the new manifest and writes the
// file, unless the previous build produced identical bytes and the file is
// still on disk.
func (e *exporter) writeBytes(rel string, data []byte) (bool, error) {
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	path := filepath.Join(e.outDir, rel)

	e.mu.Lock()
	prev, unchanged := e.prev[rel]
	e.next[rel] = digest
	e.mu.Unlock()

	if unchanged && prev == digest {
		if _, err := os.Stat(path); err == nil {
			e.mu.Lock()
			e.skipped++
			e.mu.Unlock()
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("website: create dir for %s: %w", rel, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("website: write %s: %w", rel, err)
	}
	return true, nil
}

func (a *App) robotsTxt() string {
	return "User-agent: *\nAllow: /\nDisallow: /admin/\n\nSitemap: " + AssetURL(a.Config.URL, "sitemap.xml") + "\n"
}

// copyStatic mirrors the static dir into <out>/public. Missing static dirs
// are not an error so a content-only site still builds.
func (e *exporter) copyStatic(ctx context.Context) (int, error) {
	src := e.app.Config.StaticDir
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return 0, nil
	}
	copied := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		wrote, err := e.writeBytes(filepath.Join("public", rel), data)
		if err != nil {
			return err
		}
		if wrote {
			copied++
		}
		return nil
	})
	if err != nil {
		return copied, fmt.Errorf("website: copy static: %w", err)
	}
	return copied, nil
}

func loadBuildManifest(path string) map[string]string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

func (e *exporter) saveManifest() error {
	data, err := json.MarshalIndent(e.next, "", "  ")
	if err != nil {
		return fmt.Errorf("website: encode build manifest: %w", err)
	}
	path := filepath.Join(e.outDir, buildManifestName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("website: write build manifest: %w", err)
	}
	return nil
}
