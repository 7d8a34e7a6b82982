package pipeline

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// typographyStep applies smart punctuation as a standalone pass over rendered
// HTML: curly quotes, en and em dashes, and ellipses, emitted as entities the
// same way the markdown step's Typographer extension emits them. It exists
// for pipelines whose items arrive with HTML that never went through the
// markdown step. Text inside code and pre elements is left alone.
type typographyStep struct{}

func newTypographyStep(opts map[string]any) (Step, error) {
	return typographyStep{}, nil
}

func (typographyStep) Name() string { return "typography" }

func (typographyStep) Apply(item *Item) error {
	if item.HTML != "" {
		item.HTML = smartenHTML(item.HTML)
		return nil
	}
	item.Body = smartenHTML(item.Body)
	return nil
}

// smartenHTML rewrites punctuation in text content while passing tags and
// code blocks through untouched.
func smartenHTML(s string) string {
	var out strings.Builder
	out.Grow(len(s) + len(s)/16)

	codeDepth := 0
	// prev is the last text rune written, used to pick quote direction.
	var prev rune

	i := 0
	for i < len(s) {
		if s[i] == '<' {
			end := strings.IndexByte(s[i:], '>')
			if end < 0 {
				out.WriteString(s[i:])
				break
			}
			tag := s[i : i+end+1]
			switch {
			case strings.HasPrefix(tag, "<code"), strings.HasPrefix(tag, "<pre"):
				codeDepth++
			case strings.HasPrefix(tag, "</code"), strings.HasPrefix(tag, "</pre"):
				if codeDepth > 0 {
					codeDepth--
				}
			}
			out.WriteString(tag)
			i += end + 1
			continue
		}

		if codeDepth > 0 {
			out.WriteByte(s[i])
			i++
			continue
		}

		switch {
		case strings.HasPrefix(s[i:], "..."):
			out.WriteString("&hellip;")
			prev = '.'
			i += 3
		case strings.HasPrefix(s[i:], "---"):
			out.WriteString("&mdash;")
			prev = '-'
			i += 3
		case strings.HasPrefix(s[i:], "--"):
			out.WriteString("&ndash;")
			prev = '-'
			i += 2
		case s[i] == '"':
			if opensQuote(prev) {
				out.WriteString("&ldquo;")
			} else {
				out.WriteString("&rdquo;")
			}
			prev = '"'
			i++
		case s[i] == '\'':
			if opensQuote(prev) {
				out.WriteString("&lsquo;")
			} else {
				out.WriteString("&rsquo;")
			}
			prev = '\''
			i++
		default:
			r, size := utf8.DecodeRuneInString(s[i:])
			out.WriteRune(r)
			prev = r
			i += size
		}
	}
	return out.String()
}

// opensQuote reports whether a quote following prev starts quoted text.
// Quotes after letters, digits, or closing punctuation close or contract.
func opensQuote(prev rune) bool {
	switch prev {
	case 0, '(', '[', '{':
		return true
	}
	return unicode.IsSpace(prev)
}
