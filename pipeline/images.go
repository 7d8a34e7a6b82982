package pipeline

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	reImgTag   = regexp.MustCompile(`<img\s[^>]*?>`)
	reImgAttr  = regexp.MustCompile(`(\w[\w-]*)="([^"]*)"`)
	reSrcLocal = regexp.MustCompile(`^(/|\./|\.\./)`)
)

// imagesStep rewrites <img> tags emitted by the markdown step: it adds
// decoding="async" everywhere, marks the first image fetchpriority="high"
// and lazy-loads the rest, and prefixes a base path onto relative sources so
// article images resolve against the static dir.
//
// The first image is eagerly prioritized because on article pages it is the
// featured image and almost always the LCP element.
type imagesStep struct {
	basePath  string
	defaultW  int
	defaultH  int
	lazyBelow bool
}

func newImagesStep(opts map[string]any) (Step, error) {
	base := optString(opts, "basePath", "")
	if base != "" && !strings.HasPrefix(base, "/") {
		return nil, fmt.Errorf("basePath must start with /, got %q", base)
	}
	return &imagesStep{
		basePath:  strings.TrimSuffix(base, "/"),
		defaultW:  optInt(opts, "defaultWidth", 1024),
		defaultH:  optInt(opts, "defaultHeight", 768),
		lazyBelow: optBool(opts, "lazyLoad", true),
	}, nil
}

func (s *imagesStep) Name() string { return "images" }

func (s *imagesStep) Apply(item *Item) error {
	if item.HTML == "" {
		return nil
	}
	count := 0
	item.HTML = reImgTag.ReplaceAllStringFunc(item.HTML, func(tag string) string {
		count++
		return s.rewriteTag(tag, count == 1)
	})
	return nil
}

func (s *imagesStep) rewriteTag(tag string, first bool) string {
	attrs := map[string]string{}
	order := []string{}
	for _, m := range reImgAttr.FindAllStringSubmatch(tag, -1) {
		if _, ok := attrs[m[1]]; !ok {
			order = append(order, m[1])
		}
		attrs[m[1]] = m[2]
	}

	if s.basePath != "" {
		if src, ok := attrs["src"]; ok && reSrcLocal.MatchString(src) && !strings.HasPrefix(src, s.basePath+"/") {
			attrs["src"] = s.basePath + "/" + strings.TrimLeft(src, "./")
		}
	}
	if _, ok := attrs["width"]; !ok {
		attrs["width"] = fmt.Sprintf("%d", s.defaultW)
		order = append(order, "width")
	}
	if _, ok := attrs["height"]; !ok {
		attrs["height"] = fmt.Sprintf("%d", s.defaultH)
		order = append(order, "height")
	}
	attrs["decoding"] = "async"
	order = appendMissing(order, "decoding")
	if first {
		attrs["fetchpriority"] = "high"
		order = appendMissing(order, "fetchpriority")
		delete(attrs, "loading")
	} else if s.lazyBelow {
		attrs["loading"] = "lazy"
		order = appendMissing(order, "loading")
	}

	var b strings.Builder
	b.WriteString("<img")
	for _, name := range order {
		if v, ok := attrs[name]; ok {
			b.WriteString(" " + name + `="` + v + `"`)
		}
	}
	b.WriteString("/>")
	return b.String()
}

func appendMissing(order []string, name string) []string {
	for _, n := range order {
		if n == name {
			return order
		}
	}
	return append(order, name)
}
