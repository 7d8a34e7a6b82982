// Package content sources markdown documents from a directory. Each document
// is a hand-authored file with a YAML frontmatter block; documents are read
// at build/serve time and never mutated by the system.
package content

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/bmatcuk/doublestar/v4"
)

// Frontmatter is the metadata block at the top of a content file.
type Frontmatter struct {
	Title         string   `yaml:"title"`
	Description   string   `yaml:"description"`
	Date          string   `yaml:"date"`
	Published     bool     `yaml:"published"`
	FeaturedImage string   `yaml:"featuredImage"`
	Tags          []string `yaml:"tags"`
	Slug          string   `yaml:"slug"`
}

// DateFormat is the ISO date layout frontmatter dates must use.
const DateFormat = "2006-01-02"

// ParseDate returns the frontmatter date as a time.Time.
func (m Frontmatter) ParseDate() (time.Time, error) {
	return time.Parse(DateFormat, strings.TrimSpace(m.Date))
}

// Document is one loaded content file: parsed frontmatter plus the markdown
// body with the delimiters stripped.
type Document struct {
	Path     string // path relative to the content dir
	Matter   Frontmatter
	Body     string
	Modified time.Time
}

// Slug returns the frontmatter slug when set, otherwise a slug derived from
// the file name.
func (d Document) Slug() string {
	if s := strings.TrimSpace(d.Matter.Slug); s != "" {
		return s
	}
	base := filepath.Base(d.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Problem reports a content file that failed to parse or validate. Problems
// are surfaced to the operator; the offending file is skipped rather than
// failing the whole load.
type Problem struct {
	Path string
	Err  error
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %v", p.Path, p.Err)
}

// Load reads every file under dir matching the doublestar glob pattern,
// parses its frontmatter, and validates it. Valid documents are returned
// sorted by date descending; invalid ones are reported as problems.
func Load(dir, pattern string) ([]Document, []Problem, error) {
	if pattern == "" {
		pattern = "**/*.md"
	}
	root := os.DirFS(dir)
	matches, err := doublestar.Glob(root, pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("content: glob %q: %w", pattern, err)
	}
	sort.Strings(matches)

	var docs []Document
	var problems []Problem
	for _, rel := range matches {
		doc, err := load(root, rel)
		if err != nil {
			problems = append(problems, Problem{Path: rel, Err: err})
			continue
		}
		if err := doc.Validate(); err != nil {
			problems = append(problems, Problem{Path: rel, Err: err})
			continue
		}
		docs = append(docs, doc)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Matter.Date > docs[j].Matter.Date
	})
	return docs, problems, nil
}

func load(root fs.FS, rel string) (Document, error) {
	f, err := root.Open(rel)
	if err != nil {
		return Document{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	var matter Frontmatter
	body, err := frontmatter.Parse(f, &matter)
	if err != nil {
		return Document{}, fmt.Errorf("parse frontmatter: %w", err)
	}

	doc := Document{
		Path:   rel,
		Matter: matter,
		Body:   string(body),
	}
	if info, err := fs.Stat(root, rel); err == nil {
		doc.Modified = info.ModTime()
	}
	return doc, nil
}
