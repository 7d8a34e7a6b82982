package website

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	// Run from an empty dir so no site.yaml is picked up.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Name != "Blog" {
		t.Errorf("Name = %q, want Blog", cfg.Name)
	}
	if cfg.URL != "http://localhost:3000" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if cfg.Addr != ":3000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.ContentDir != "content" || cfg.ContentGlob != "**/*.md" {
		t.Errorf("content defaults = %q %q", cfg.ContentDir, cfg.ContentGlob)
	}
	if cfg.PostCacheTTL != 5*time.Minute {
		t.Errorf("PostCacheTTL = %v", cfg.PostCacheTTL)
	}
	if len(cfg.Plugins) != 3 || cfg.Plugins[0].Name != "markdown" {
		t.Errorf("Plugins = %v, want default pipeline", cfg.Plugins)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	yaml := `name: Example Blog
url: https://example.com
author: Jane Doe
description: Notes on things
social:
  github: https://github.com/janedoe
content_dir: articles
plugins:
  - name: markdown
    options:
      extensions: [gfm, typography]
  - name: excerpt
    options:
      maxLength: 150
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Name != "Example Blog" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.URL != "https://example.com" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if cfg.Social.GitHub != "https://github.com/janedoe" {
		t.Errorf("Social.GitHub = %q", cfg.Social.GitHub)
	}
	if cfg.ContentDir != "articles" {
		t.Errorf("ContentDir = %q", cfg.ContentDir)
	}
	if len(cfg.Plugins) != 2 {
		t.Fatalf("Plugins = %v, want 2 declarations", cfg.Plugins)
	}
	if cfg.Plugins[0].Name != "markdown" || cfg.Plugins[1].Name != "excerpt" {
		t.Errorf("plugin order = [%s %s]", cfg.Plugins[0].Name, cfg.Plugins[1].Name)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	yaml := `name: Example Blog
url: https://example.com
author: Jane Doe
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	// Secrets are normally passed through the environment only, so keys
	// absent from the file must still be picked up.
	t.Setenv("WEBSITE_ADMIN_PASSWORD", "hunter2")
	t.Setenv("WEBSITE_SESSION_SECRET", "0123456789abcdef")
	t.Setenv("WEBSITE_NAME", "Env Blog")
	t.Setenv("WEBSITE_SOCIAL_GITHUB", "https://github.com/janedoe")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.AdminPassword != "hunter2" {
		t.Errorf("AdminPassword = %q, want env value", cfg.AdminPassword)
	}
	if cfg.SessionSecret != "0123456789abcdef" {
		t.Errorf("SessionSecret = %q, want env value", cfg.SessionSecret)
	}
	if cfg.Name != "Env Blog" {
		t.Errorf("Name = %q, want env to take precedence over the file", cfg.Name)
	}
	if cfg.Social.GitHub != "https://github.com/janedoe" {
		t.Errorf("Social.GitHub = %q, want env value", cfg.Social.GitHub)
	}
}

func TestConfigValidate(t *testing.T) {
	base := SiteConfig{Name: "Blog", Author: "Jane", URL: "https://example.com"}
	base.setDefaults()
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	noAuthor := base
	noAuthor.Author = ""
	if err := noAuthor.Validate(); err == nil {
		t.Error("expected error for missing author")
	}

	relativeURL := base
	relativeURL.URL = "/just/a/path"
	if err := relativeURL.Validate(); err == nil {
		t.Error("expected error for relative URL")
	}

	badScheme := base
	badScheme.URL = "ftp://example.com"
	if err := badScheme.Validate(); err == nil {
		t.Error("expected error for non-http scheme")
	}
}

func TestConfigValidateRejectsBadPlugins(t *testing.T) {
	cfg := SiteConfig{Name: "Blog", Author: "Jane", URL: "https://example.com"}
	cfg.setDefaults()
	cfg.Plugins = append(cfg.Plugins, cfg.Plugins[0]) // duplicate markdown

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for duplicate plugin")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error = %q, want duplicate plugin message", err)
	}
}
