// Package views provides the default templ components for the website
// engine. The engine calls these through the ViewFuncs struct, so a
// site can swap any of them for its own templates.
package views

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"

	"github.com/NMFR/website"
)

// Funcs returns the default view set wired for the engine.
func Funcs() website.ViewFuncs {
	return website.ViewFuncs{
		Home:           Home,
		Post:           Post,
		AdminLogin:     AdminLogin,
		AdminDashboard: AdminDashboard,
		AdminImages:    AdminImages,
		NotFound:       NotFound,
		ServerError:    ServerError,
	}
}

// component adapts a buffer-writing render function into a templ.Component.
func component(render func(buf *bytes.Buffer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		render(&buf)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func esc(s string) string {
	return html.EscapeString(s)
}

// writeHead emits the document head: meta tags, OpenGraph, canonical URL,
// and an optional JSON-LD block.
func writeHead(buf *bytes.Buffer, cfg website.SiteConfig, meta website.PageMeta, jsonLD string) {
	buf.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	buf.WriteString("<meta charset=\"utf-8\">\n")
	buf.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	fmt.Fprintf(buf, "<title>%s</title>\n", esc(meta.Title))
	if meta.Description != "" {
		fmt.Fprintf(buf, "<meta name=\"description\" content=\"%s\">\n", esc(meta.Description))
	}
	if cfg.Author != "" {
		fmt.Fprintf(buf, "<meta name=\"author\" content=\"%s\">\n", esc(cfg.Author))
	}
	if meta.URL != "" {
		fmt.Fprintf(buf, "<link rel=\"canonical\" href=\"%s\">\n", esc(meta.URL))
		fmt.Fprintf(buf, "<meta property=\"og:url\" content=\"%s\">\n", esc(meta.URL))
	}
	fmt.Fprintf(buf, "<meta property=\"og:title\" content=\"%s\">\n", esc(meta.Title))
	if meta.Description != "" {
		fmt.Fprintf(buf, "<meta property=\"og:description\" content=\"%s\">\n", esc(meta.Description))
	}
	ogType := meta.OGType
	if ogType == "" {
		ogType = "website"
	}
	fmt.Fprintf(buf, "<meta property=\"og:type\" content=\"%s\">\n", esc(ogType))
	if meta.Image != "" {
		fmt.Fprintf(buf, "<meta property=\"og:image\" content=\"%s\">\n", esc(meta.Image))
	}
	fmt.Fprintf(buf, "<meta property=\"og:site_name\" content=\"%s\">\n", esc(cfg.Name))
	buf.WriteString("<link rel=\"icon\" href=\"/public/favicon.svg\" type=\"image/svg+xml\">\n")
	buf.WriteString("<link rel=\"manifest\" href=\"/manifest.webmanifest\">\n")
	buf.WriteString("<link rel=\"alternate\" type=\"application/rss+xml\" href=\"/feed.xml\">\n")
	buf.WriteString("<link rel=\"stylesheet\" href=\"/public/styles.css\">\n")
	if jsonLD != "" {
		fmt.Fprintf(buf, "<script type=\"application/ld+json\">%s</script>\n", jsonLD)
	}
	buf.WriteString("</head>\n")
}

// writeAnalyticsScript emits the page-view beacon. It sends a collect
// request on load and an unload beacon carrying the time on page.
func writeAnalyticsScript(buf *bytes.Buffer) {
	buf.WriteString(`<script>
(function() {
  if (navigator.doNotTrack === "1") return;
  var start = Date.now();
  var payload = function(duration) {
    return JSON.stringify({
      path: location.pathname,
      referrer: document.referrer,
      screen_size: screen.width + "x" + screen.height,
      duration_sec: duration
    });
  };
  fetch("/api/analytics/collect", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: payload(0)
  }).catch(function() {});
  addEventListener("pagehide", function() {
    var secs = Math.round((Date.now() - start) / 1000);
    if (secs > 0) navigator.sendBeacon("/api/analytics/collect", payload(secs));
  });
})();
</script>
`)
}

func writeHeader(buf *bytes.Buffer, cfg website.SiteConfig) {
	buf.WriteString("<header class=\"site-header\">\n")
	fmt.Fprintf(buf, "<a class=\"site-title\" href=\"/\">%s</a>\n", esc(cfg.Name))
	buf.WriteString("<nav><a href=\"/\">Blog</a> <a href=\"/feed.xml\">RSS</a></nav>\n")
	buf.WriteString("</header>\n")
}

func writeFooter(buf *bytes.Buffer, cfg website.SiteConfig) {
	buf.WriteString("<footer class=\"site-footer\">\n")
	if cfg.Author != "" {
		fmt.Fprintf(buf, "<span>%s</span>\n", esc(cfg.Author))
	}
	if cfg.Location != "" {
		fmt.Fprintf(buf, "<span>%s</span>\n", esc(cfg.Location))
	}
	social := []struct{ href, label string }{
		{cfg.Social.GitHub, "GitHub"},
		{cfg.Social.LinkedIn, "LinkedIn"},
		{cfg.Social.Twitter, "Twitter"},
	}
	for _, s := range social {
		if s.href != "" {
			fmt.Fprintf(buf, "<a href=\"%s\" rel=\"me noopener\">%s</a>\n", esc(s.href), s.label)
		}
	}
	if cfg.Social.Email != "" {
		fmt.Fprintf(buf, "<a href=\"mailto:%s\">Email</a>\n", esc(cfg.Social.Email))
	}
	buf.WriteString("</footer>\n")
}
