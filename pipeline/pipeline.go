// Package pipeline applies an ordered list of named transformation steps to
// content items. Each step is declared by name plus an option record; the
// declaration order is the execution order, so rewrites that operate on HTML
// must be declared after the markdown step that produces it.
package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

// Decl declares one transformation step: a registered name and its options.
type Decl struct {
	Name    string         `mapstructure:"name" yaml:"name"`
	Options map[string]any `mapstructure:"options" yaml:"options"`
}

// Item is the unit of content flowing through the pipeline. Steps read and
// rewrite Body/HTML and may fill derived fields; they never touch the source
// file.
type Item struct {
	Slug          string
	Title         string
	Description   string
	Body          string // markdown source
	HTML          string // set by the markdown step, rewritten by later steps
	FeaturedImage string
}

// Step transforms a single content item in place.
type Step interface {
	Name() string
	Apply(item *Item) error
}

// Factory builds a Step from its option record. It should reject unknown or
// ill-typed options.
type Factory func(opts map[string]any) (Step, error)

var registry = map[string]Factory{
	"markdown":   newMarkdownStep,
	"typography": newTypographyStep,
	"images":     newImagesStep,
	"excerpt":    newExcerptStep,
}

// Names returns the sorted list of registered step names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultDecls is the pipeline used when the site config declares none:
// markdown rendering, image attribute rewriting, then excerpt derivation.
func DefaultDecls() []Decl {
	return []Decl{
		{Name: "markdown"},
		{Name: "images"},
		{Name: "excerpt"},
	}
}

// ValidateDecls checks that every declared name is registered and that no
// name appears twice. Two declarations of the same step would make the
// execution order ambiguous.
func ValidateDecls(decls []Decl) error {
	seen := make(map[string]struct{}, len(decls))
	for _, d := range decls {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return fmt.Errorf("pipeline: plugin declaration with empty name")
		}
		if _, ok := registry[name]; !ok {
			return fmt.Errorf("pipeline: unknown plugin %q (known: %s)", name, strings.Join(Names(), ", "))
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("pipeline: duplicate plugin %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Pipeline is an ordered sequence of constructed steps.
type Pipeline struct {
	steps []Step
}

// New validates the declarations and constructs each step in order.
func New(decls []Decl) (*Pipeline, error) {
	if err := ValidateDecls(decls); err != nil {
		return nil, err
	}
	steps := make([]Step, 0, len(decls))
	for _, d := range decls {
		factory := registry[strings.TrimSpace(d.Name)]
		step, err := factory(d.Options)
		if err != nil {
			return nil, fmt.Errorf("pipeline: configure %q: %w", d.Name, err)
		}
		steps = append(steps, step)
	}
	return &Pipeline{steps: steps}, nil
}

// Steps returns the names of the constructed steps in execution order.
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return names
}

// Apply runs every step against the item in declaration order. The first
// failing step aborts the run; the item may be partially transformed.
func (p *Pipeline) Apply(item *Item) error {
	for _, s := range p.steps {
		if err := s.Apply(item); err != nil {
			return fmt.Errorf("pipeline: step %q: %w", s.Name(), err)
		}
	}
	return nil
}

// optString reads a string option, falling back when absent.
func optString(opts map[string]any, key, fallback string) string {
	if v, ok := opts[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// optBool reads a bool option, falling back when absent.
func optBool(opts map[string]any, key string, fallback bool) bool {
	if v, ok := opts[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

// optInt reads an int option, tolerating the numeric types YAML decoders
// produce.
func optInt(opts map[string]any, key string, fallback int) int {
	switch v := opts[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// optStrings reads a string-slice option, tolerating []any from YAML.
func optStrings(opts map[string]any, key string) []string {
	switch v := opts[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
