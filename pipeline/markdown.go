package pipeline

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// markdownStep renders the item body to HTML with goldmark. Typography
// (smart quotes, dashes, ellipses) is part of this step via the Typographer
// extension so punctuation substitution happens during parsing rather than
// as a separate text pass.
type markdownStep struct {
	md goldmark.Markdown
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"tasklist":      extension.TaskList,
	"footnote":      extension.Footnote,
	"typography":    extension.Typographer,
}

func newMarkdownStep(opts map[string]any) (Step, error) {
	names := optStrings(opts, "extensions")
	if len(names) == 0 {
		names = []string{"gfm", "footnote", "typography"}
	}

	var exts []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		ext, ok := extensionRegistry[key]
		if !ok {
			return nil, fmt.Errorf("unknown markdown extension %q", name)
		}
		exts = append(exts, ext)
	}

	parserOptions := []parser.Option{
		parser.WithAutoHeadingID(),
	}
	var rendererOptions []renderer.Option
	if optBool(opts, "hardWraps", false) {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if optBool(opts, "unsafe", false) {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	engineOptions := []goldmark.Option{
		goldmark.WithParserOptions(parserOptions...),
		goldmark.WithExtensions(exts...),
	}
	if len(rendererOptions) > 0 {
		engineOptions = append(engineOptions, goldmark.WithRendererOptions(rendererOptions...))
	}

	return &markdownStep{md: goldmark.New(engineOptions...)}, nil
}

func (s *markdownStep) Name() string { return "markdown" }

func (s *markdownStep) Apply(item *Item) error {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(item.Body), &buf); err != nil {
		return fmt.Errorf("convert markdown: %w", err)
	}
	item.HTML = buf.String()
	return nil
}
