package website

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"
)

func testApp() *App {
	cfg := SiteConfig{
		Name:        "Example Blog",
		URL:         "https://example.com",
		Description: "Notes on things",
		Author:      "Jane Doe",
	}
	cfg.setDefaults()
	return &App{Config: cfg}
}

func feedPosts() []Post {
	return []Post{
		{
			Slug:        "second",
			Title:       "Second Post",
			Description: "The second one",
			Date:        "2024-02-01",
			Published:   true,
		},
		{
			Slug:        "first",
			Title:       "First Post",
			Description: "The first one",
			Date:        "2024-01-15",
			Published:   true,
		},
	}
}

func TestWriteFeed(t *testing.T) {
	a := testApp()
	var buf bytes.Buffer
	if err := a.WriteFeed(&buf, feedPosts()); err != nil {
		t.Fatalf("WriteFeed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "<?xml") {
		t.Errorf("feed missing XML header: %q", out[:40])
	}

	var feed rssXML
	if err := xml.Unmarshal(buf.Bytes(), &feed); err != nil {
		t.Fatalf("feed is not valid XML: %v", err)
	}
	if feed.Version != "2.0" {
		t.Errorf("version = %q, want 2.0", feed.Version)
	}
	if feed.Channel.Title != "Example Blog" {
		t.Errorf("channel title = %q", feed.Channel.Title)
	}
	if len(feed.Channel.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(feed.Channel.Items))
	}
	item := feed.Channel.Items[0]
	if item.Link != "https://example.com/blog/second/" {
		t.Errorf("item link = %q", item.Link)
	}
	if item.GUID != item.Link {
		t.Errorf("guid %q should equal link %q", item.GUID, item.Link)
	}
	if !strings.Contains(item.PubDate, "Feb 2024") {
		t.Errorf("pubDate = %q, want RFC1123Z for 2024-02-01", item.PubDate)
	}
}

func TestWriteSitemap(t *testing.T) {
	a := testApp()
	var buf bytes.Buffer
	if err := a.WriteSitemap(&buf, feedPosts()); err != nil {
		t.Fatalf("WriteSitemap: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "http://www.sitemaps.org/schemas/sitemap/0.9") {
		t.Errorf("sitemap missing namespace: %q", out)
	}
	if !strings.Contains(out, "<loc>https://example.com</loc>") {
		t.Errorf("sitemap missing home URL: %q", out)
	}
	if !strings.Contains(out, "<loc>https://example.com/blog/first/</loc>") {
		t.Errorf("sitemap missing post URL: %q", out)
	}
	if !strings.Contains(out, "<lastmod>2024-02-01</lastmod>") {
		t.Errorf("sitemap missing lastmod: %q", out)
	}
}

func TestWriteManifest(t *testing.T) {
	a := testApp()
	var buf bytes.Buffer
	if err := a.WriteManifest(&buf); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}

	var manifest map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &manifest); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if manifest["name"] != "Example Blog" {
		t.Errorf("name = %v", manifest["name"])
	}
	icons, ok := manifest["icons"].([]interface{})
	if !ok || len(icons) == 0 {
		t.Errorf("manifest has no icons: %v", manifest["icons"])
	}
}

func TestRobotsTxt(t *testing.T) {
	a := testApp()
	out := a.robotsTxt()
	if !strings.Contains(out, "Disallow: /admin/") {
		t.Errorf("robots should disallow admin: %q", out)
	}
	if !strings.Contains(out, "Sitemap: https://example.com/sitemap.xml") {
		t.Errorf("robots should point at the sitemap: %q", out)
	}
}
