package website

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// webManifest is the web app manifest consumed by the service worker and
// installable-app prompts.
type webManifest struct {
	Name            string         `json:"name"`
	ShortName       string         `json:"short_name"`
	Description     string         `json:"description,omitempty"`
	StartURL        string         `json:"start_url"`
	Display         string         `json:"display"`
	BackgroundColor string         `json:"background_color"`
	ThemeColor      string         `json:"theme_color"`
	Icons           []manifestIcon `json:"icons,omitempty"`
}

type manifestIcon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes"`
	Type  string `json:"type"`
}

func (a *App) buildManifest() webManifest {
	return webManifest{
		Name:            a.Config.Name,
		ShortName:       a.Config.Name,
		Description:     a.Config.Description,
		StartURL:        "/",
		Display:         "minimal-ui",
		BackgroundColor: "#ffffff",
		ThemeColor:      "#ffffff",
		Icons: []manifestIcon{
			{Src: "/icons/icon-192.png", Sizes: "192x192", Type: "image/png"},
			{Src: "/icons/icon-512.png", Sizes: "512x512", Type: "image/png"},
		},
	}
}

// WriteManifest encodes the web app manifest to w. Used by the static build.
func (a *App) WriteManifest(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a.buildManifest())
}

func (a *App) handleManifest(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/manifest+json; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return a.WriteManifest(c.Response())
}
