package website

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/NMFR/website/pipeline"
)

// SocialLinks holds the author's profile URLs rendered in the footer and
// included in the JSON-LD sameAs list. Empty entries are skipped.
type SocialLinks struct {
	GitHub   string `mapstructure:"github"`
	LinkedIn string `mapstructure:"linkedin"`
	Twitter  string `mapstructure:"twitter"`
	Email    string `mapstructure:"email"`
}

// SiteConfig holds all configuration for the site: metadata consumed by
// templates and feeds, filesystem locations, the ordered transformation
// pipeline, and server settings.
type SiteConfig struct {
	Name        string      `mapstructure:"name"`        // Site name (default "Blog")
	URL         string      `mapstructure:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string      `mapstructure:"description"` // Site description for RSS and meta tags
	Author      string      `mapstructure:"author"`      // Author name for JSON-LD and the feed
	Location    string      `mapstructure:"location"`    // Author location, rendered on the home page
	Social      SocialLinks `mapstructure:"social"`

	Addr         string `mapstructure:"addr"`          // Listen address (default ":3000")
	ContentDir   string `mapstructure:"content_dir"`   // Markdown content directory (default "content")
	ContentGlob  string `mapstructure:"content_glob"`  // Glob matched against content files (default "**/*.md")
	StaticDir    string `mapstructure:"static_dir"`    // User-owned static assets (default "public")
	OutputDir    string `mapstructure:"output_dir"`    // Static build output (default "dist")
	DatabasePath string `mapstructure:"database_path"` // SQLite content index (default "data/site.db")

	AnalyticsEnabled      bool   `mapstructure:"analytics_enabled"`       // Enable analytics (default true)
	AnalyticsDatabasePath string `mapstructure:"analytics_database_path"` // Analytics SQLite path (default "data/analytics.db")

	AdminPassword string `mapstructure:"admin_password"` // Required for serve: admin login password
	SessionSecret string `mapstructure:"session_secret"` // Required for serve: session encryption secret
	CookieSecure  bool   `mapstructure:"cookie_secure"`  // Set true for HTTPS

	PostCacheTTL time.Duration `mapstructure:"post_cache_ttl"` // Post cache TTL (default 5min)

	// Plugins is the ordered list of named transformation steps applied to
	// every content item. Order matters: markdown must run before steps that
	// rewrite its HTML output.
	Plugins []pipeline.Decl `mapstructure:"plugins"`
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	if c.ContentGlob == "" {
		c.ContentGlob = "**/*.md"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.OutputDir == "" {
		c.OutputDir = "dist"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/site.db"
	}
	if c.AnalyticsDatabasePath == "" {
		c.AnalyticsDatabasePath = "data/analytics.db"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if len(c.Plugins) == 0 {
		c.Plugins = pipeline.DefaultDecls()
	}
}

// Validate checks the invariants the site promises its templates and feeds:
// a valid absolute URL, non-empty name and author, and a well-formed plugin
// list (known names, no duplicates).
func (c SiteConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Author, validation.Required),
		validation.Field(&c.URL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.Plugins, validation.By(func(any) error {
			return pipeline.ValidateDecls(c.Plugins)
		})),
	)
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must be absolute with http or https scheme")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}

// configKeys lists every scalar SiteConfig key. Viper only consults the
// environment for keys it already knows about, so each one is bound
// explicitly; otherwise a WEBSITE_* variable whose key is absent from the
// config file (admin_password and session_secret usually are) would be
// silently dropped.
var configKeys = []string{
	"name",
	"url",
	"description",
	"author",
	"location",
	"social.github",
	"social.linkedin",
	"social.twitter",
	"social.email",
	"addr",
	"content_dir",
	"content_glob",
	"static_dir",
	"output_dir",
	"database_path",
	"analytics_enabled",
	"analytics_database_path",
	"admin_password",
	"session_secret",
	"cookie_secure",
	"post_cache_ttl",
}

// LoadConfig reads site configuration from the given file (YAML), with
// WEBSITE_* environment variables taking precedence over file values.
// Passing an empty path loads "site.yaml" from the working directory if
// present, and otherwise returns a config built purely from env and defaults.
func LoadConfig(path string) (SiteConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("WEBSITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return SiteConfig{}, fmt.Errorf("website: bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return SiteConfig{}, fmt.Errorf("website: read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("site")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return SiteConfig{}, fmt.Errorf("website: read config: %w", err)
			}
		}
	}

	var cfg SiteConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("website: parse config: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir overrides the directory for user-owned static assets.
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.Config.StaticDir = dir
	}
}
