package views

import (
	"bytes"
	"fmt"

	"github.com/a-h/templ"

	"github.com/NMFR/website"
)

// Home renders the post index, optionally filtered to one tag.
func Home(cfg website.SiteConfig, posts []website.Post, activeTag string, tags []string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		meta := website.PageMeta{
			Title:       cfg.Name,
			Description: cfg.Description,
			URL:         website.BuildURL(cfg.URL),
			OGType:      "website",
		}
		writeHead(buf, cfg, meta, website.WebsiteJsonLD(cfg))
		buf.WriteString("<body>\n")
		writeHeader(buf, cfg)
		buf.WriteString("<main class=\"home\">\n")

		if cfg.Description != "" {
			fmt.Fprintf(buf, "<p class=\"site-description\">%s</p>\n", esc(cfg.Description))
		}

		if len(tags) > 0 {
			buf.WriteString("<nav class=\"tags\">\n")
			class := "tag"
			if activeTag == "" {
				class = "tag active"
			}
			fmt.Fprintf(buf, "<a class=\"%s\" href=\"/\">All</a>\n", class)
			for _, tag := range tags {
				class := "tag"
				if tag == activeTag {
					class = "tag active"
				}
				fmt.Fprintf(buf, "<a class=\"%s\" href=\"/?tag=%s\">%s</a>\n",
					class, website.PathEscape(tag), esc(tag))
			}
			buf.WriteString("</nav>\n")
		}

		buf.WriteString("<section class=\"posts\">\n")
		if len(posts) == 0 {
			buf.WriteString("<p class=\"empty\">No posts yet.</p>\n")
		}
		for _, post := range posts {
			buf.WriteString("<article class=\"post-card\">\n")
			fmt.Fprintf(buf, "<h2><a href=\"/blog/%s/\">%s</a></h2>\n",
				website.PathEscape(post.Slug), esc(post.Title))
			fmt.Fprintf(buf, "<time datetime=\"%s\">%s</time>\n", esc(post.Date), esc(post.Date))
			if post.Description != "" {
				fmt.Fprintf(buf, "<p>%s</p>\n", esc(post.Description))
			}
			if len(post.Tags) > 0 {
				fmt.Fprintf(buf, "<p class=\"post-tags\">%s</p>\n", esc(website.JoinTags(post.Tags)))
			}
			buf.WriteString("</article>\n")
		}
		buf.WriteString("</section>\n</main>\n")
		writeFooter(buf, cfg)
		if cfg.AnalyticsEnabled {
			writeAnalyticsScript(buf)
		}
		buf.WriteString("</body>\n</html>\n")
	})
}

// Post renders a single article page with related posts.
func Post(cfg website.SiteConfig, post website.Post, related []website.Post) templ.Component {
	return component(func(buf *bytes.Buffer) {
		meta := website.PageMeta{
			Title:       post.Title + " | " + cfg.Name,
			Description: post.Description,
			URL:         website.BuildURL(cfg.URL, "blog", post.Slug),
			OGType:      "article",
		}
		if post.FeaturedImage != "" {
			meta.Image = website.AssetURL(cfg.URL, post.FeaturedImage)
		}
		writeHead(buf, cfg, meta, website.BlogPostingJsonLD(post, cfg))
		buf.WriteString("<body>\n")
		writeHeader(buf, cfg)
		buf.WriteString("<main>\n<article class=\"post\">\n")
		fmt.Fprintf(buf, "<h1>%s</h1>\n", esc(post.Title))
		fmt.Fprintf(buf, "<time datetime=\"%s\">%s</time>\n", esc(post.Date), esc(post.Date))
		if len(post.Tags) > 0 {
			buf.WriteString("<nav class=\"tags\">\n")
			for _, tag := range post.Tags {
				fmt.Fprintf(buf, "<a class=\"tag\" href=\"/?tag=%s\">%s</a>\n",
					website.PathEscape(tag), esc(tag))
			}
			buf.WriteString("</nav>\n")
		}
		// Post HTML comes out of the transformation pipeline and is
		// trusted, so it is written without escaping.
		buf.WriteString("<div class=\"post-body\">\n")
		buf.WriteString(post.HTML)
		buf.WriteString("\n</div>\n</article>\n")

		if len(related) > 0 {
			buf.WriteString("<aside class=\"related\">\n<h2>Related posts</h2>\n<ul>\n")
			for _, r := range related {
				fmt.Fprintf(buf, "<li><a href=\"/blog/%s/\">%s</a></li>\n",
					website.PathEscape(r.Slug), esc(r.Title))
			}
			buf.WriteString("</ul>\n</aside>\n")
		}

		buf.WriteString("</main>\n")
		writeFooter(buf, cfg)
		if cfg.AnalyticsEnabled {
			writeAnalyticsScript(buf)
		}
		buf.WriteString("</body>\n</html>\n")
	})
}

// NotFound renders the 404 page.
func NotFound(cfg website.SiteConfig) templ.Component {
	return component(func(buf *bytes.Buffer) {
		meta := website.PageMeta{Title: "Not found | " + cfg.Name, OGType: "website"}
		writeHead(buf, cfg, meta, "")
		buf.WriteString("<body>\n")
		writeHeader(buf, cfg)
		buf.WriteString("<main class=\"error-page\">\n<h1>404</h1>\n<p>That page does not exist.</p>\n<p><a href=\"/\">Back to the blog</a></p>\n</main>\n")
		writeFooter(buf, cfg)
		buf.WriteString("</body>\n</html>\n")
	})
}

// ServerError renders the 500 page.
func ServerError(cfg website.SiteConfig) templ.Component {
	return component(func(buf *bytes.Buffer) {
		meta := website.PageMeta{Title: "Something went wrong | " + cfg.Name, OGType: "website"}
		writeHead(buf, cfg, meta, "")
		buf.WriteString("<body>\n")
		writeHeader(buf, cfg)
		buf.WriteString("<main class=\"error-page\">\n<h1>500</h1>\n<p>Something went wrong. Please try again later.</p>\n</main>\n")
		writeFooter(buf, cfg)
		buf.WriteString("</body>\n</html>\n")
	})
}
