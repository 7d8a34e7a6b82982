package website

// Post is the core content type. It is authored as a markdown file with
// frontmatter, loaded at build/serve time, run through the transformation
// pipeline, and indexed in SQLite for serving.
type Post struct {
	Slug          string
	Title         string
	Description   string
	Date          string // ISO date, "2006-01-02"
	Tags          []string
	FeaturedImage string // relative path under the static dir, may be empty
	Body          string // markdown source, frontmatter stripped
	HTML          string // transformation pipeline output
	Link          string
	SourcePath    string // content file this post was loaded from
	Published     bool
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	Image       string // og:image, absolute URL
	OGType      string // "website" or "article"
}

// Image records a processed upload stored under the static uploads directory.
type Image struct {
	Filename     string
	OriginalName string
	Width        int
	Height       int
	Size         int
	UploadedAt   string
}
