package pipeline

import (
	"strings"
	"testing"
)

func mustMarkdownStep(t *testing.T, opts map[string]any) Step {
	t.Helper()
	s, err := newMarkdownStep(opts)
	if err != nil {
		t.Fatalf("newMarkdownStep: %v", err)
	}
	return s
}

func TestMarkdownRendersHTML(t *testing.T) {
	s := mustMarkdownStep(t, nil)

	item := Item{Body: "# Title\n\nA [link](https://example.com) and `code`.\n"}
	if err := s.Apply(&item); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if !strings.Contains(item.HTML, `<h1 id="title">Title</h1>`) {
		t.Errorf("missing heading with auto id: %q", item.HTML)
	}
	if !strings.Contains(item.HTML, `<a href="https://example.com">link</a>`) {
		t.Errorf("missing link: %q", item.HTML)
	}
	if !strings.Contains(item.HTML, "<code>code</code>") {
		t.Errorf("missing code span: %q", item.HTML)
	}
}

func TestMarkdownTypography(t *testing.T) {
	s := mustMarkdownStep(t, nil)

	item := Item{Body: `He said "hello" -- then left...`}
	if err := s.Apply(&item); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if !strings.Contains(item.HTML, "&ldquo;hello&rdquo;") {
		t.Errorf("smart quotes not applied: %q", item.HTML)
	}
	if !strings.Contains(item.HTML, "&ndash;") {
		t.Errorf("en dash not applied: %q", item.HTML)
	}
	if !strings.Contains(item.HTML, "&hellip;") {
		t.Errorf("ellipsis not applied: %q", item.HTML)
	}
}

func TestMarkdownGFMStrikethrough(t *testing.T) {
	s := mustMarkdownStep(t, nil)

	item := Item{Body: "~~gone~~"}
	if err := s.Apply(&item); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !strings.Contains(item.HTML, "<del>gone</del>") {
		t.Errorf("strikethrough not rendered: %q", item.HTML)
	}
}

func TestMarkdownRawHTMLEscapedByDefault(t *testing.T) {
	s := mustMarkdownStep(t, nil)

	item := Item{Body: "before\n\n<script>alert(1)</script>\n"}
	if err := s.Apply(&item); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if strings.Contains(item.HTML, "<script>") {
		t.Errorf("raw HTML should be omitted by default: %q", item.HTML)
	}
}

func TestMarkdownUnsafeOption(t *testing.T) {
	s := mustMarkdownStep(t, map[string]any{"unsafe": true})

	item := Item{Body: "before\n\n<aside>note</aside>\n"}
	if err := s.Apply(&item); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !strings.Contains(item.HTML, "<aside>note</aside>") {
		t.Errorf("raw HTML should pass through with unsafe: %q", item.HTML)
	}
}

func TestMarkdownExtensionSelection(t *testing.T) {
	// Without the typography extension, quotes stay plain.
	s := mustMarkdownStep(t, map[string]any{"extensions": []any{"gfm"}})

	item := Item{Body: `"plain"`}
	if err := s.Apply(&item); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if strings.Contains(item.HTML, "&ldquo;") {
		t.Errorf("typography applied despite not being enabled: %q", item.HTML)
	}
}

func TestMarkdownUnknownExtension(t *testing.T) {
	_, err := newMarkdownStep(map[string]any{"extensions": []any{"wikilinks"}})
	if err == nil {
		t.Fatal("expected error for unknown extension")
	}
	if !strings.Contains(err.Error(), "wikilinks") {
		t.Errorf("error = %q, want it to name the extension", err)
	}
}

func TestImagesRewrite(t *testing.T) {
	s, err := newImagesStep(map[string]any{"basePath": "/public"})
	if err != nil {
		t.Fatalf("newImagesStep: %v", err)
	}

	item := Item{HTML: `<p><img src="/cover.jpg" alt="cover"></p><p><img src="https://cdn.example.com/x.png" alt="remote"></p>`}
	if err := s.Apply(&item); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if !strings.Contains(item.HTML, `src="/public/cover.jpg"`) {
		t.Errorf("local src not prefixed: %q", item.HTML)
	}
	if !strings.Contains(item.HTML, `src="https://cdn.example.com/x.png"`) {
		t.Errorf("remote src should be untouched: %q", item.HTML)
	}
	if !strings.Contains(item.HTML, `fetchpriority="high"`) {
		t.Errorf("first image should be high priority: %q", item.HTML)
	}
	if !strings.Contains(item.HTML, `loading="lazy"`) {
		t.Errorf("later images should lazy-load: %q", item.HTML)
	}
	if strings.Count(item.HTML, `decoding="async"`) != 2 {
		t.Errorf("all images should decode async: %q", item.HTML)
	}
	if !strings.Contains(item.HTML, `width="1024"`) || !strings.Contains(item.HTML, `height="768"`) {
		t.Errorf("default dimensions missing: %q", item.HTML)
	}
}

func TestImagesBasePathValidation(t *testing.T) {
	if _, err := newImagesStep(map[string]any{"basePath": "public"}); err == nil {
		t.Fatal("expected error for basePath without leading slash")
	}
}

func TestExcerptDerivesDescription(t *testing.T) {
	s, err := newExcerptStep(map[string]any{"maxLength": 20})
	if err != nil {
		t.Fatalf("newExcerptStep: %v", err)
	}

	item := Item{HTML: "<p>The quick brown fox jumps over the lazy dog.</p>"}
	if err := s.Apply(&item); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if item.Description == "" {
		t.Fatal("description not derived")
	}
	if !strings.HasSuffix(item.Description, "…") {
		t.Errorf("truncated description should end with ellipsis: %q", item.Description)
	}
	if strings.Contains(item.Description, "<p>") {
		t.Errorf("description contains markup: %q", item.Description)
	}
}

func TestExcerptKeepsExistingDescription(t *testing.T) {
	s, err := newExcerptStep(nil)
	if err != nil {
		t.Fatalf("newExcerptStep: %v", err)
	}

	item := Item{Description: "From frontmatter", HTML: "<p>Body text</p>"}
	if err := s.Apply(&item); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if item.Description != "From frontmatter" {
		t.Errorf("description overwritten: %q", item.Description)
	}
}
