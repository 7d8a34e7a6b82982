package pipeline

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reStripTags  = regexp.MustCompile(`<[^>]*>`)
	reCollapseWS = regexp.MustCompile(`\s+`)
)

// excerptStep fills an empty item description from the rendered body: tags
// are stripped, whitespace collapsed, and the text truncated at a word
// boundary. Items that already carry a frontmatter description are left
// untouched.
type excerptStep struct {
	maxLen int
}

func newExcerptStep(opts map[string]any) (Step, error) {
	maxLen := optInt(opts, "maxLength", 200)
	if maxLen < 1 {
		maxLen = 200
	}
	return &excerptStep{maxLen: maxLen}, nil
}

func (s *excerptStep) Name() string { return "excerpt" }

func (s *excerptStep) Apply(item *Item) error {
	if strings.TrimSpace(item.Description) != "" {
		return nil
	}
	source := item.HTML
	if source == "" {
		source = item.Body
	}
	text := reStripTags.ReplaceAllString(source, " ")
	text = strings.TrimSpace(reCollapseWS.ReplaceAllString(text, " "))
	item.Description = truncateAtWord(text, s.maxLen)
	return nil
}

func truncateAtWord(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}
