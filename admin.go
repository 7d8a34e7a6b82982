package website

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// The admin dashboard does not edit posts: content is sourced from markdown
// files, so editing happens in an editor. Admin previews drafts, reloads the
// content index, triggers static rebuilds, and manages uploaded images.

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	if !a.loginLimiter.Check(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(c.RealIP())
	return Render(c, a.Views.AdminLogin(true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// handleAdminPreview renders a post regardless of published status so drafts
// can be reviewed before flipping the frontmatter flag.
func (a *App) handleAdminPreview(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	slug := c.Param("slug")
	post, err := a.Store.GetPostAny(slug)
	if err != nil {
		if err == ErrNotFound {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.Config))
		}
		return err
	}
	posts, err := a.Cache.ListPosts("")
	if err != nil {
		return err
	}
	return Render(c, a.Views.Post(a.Config, post, FilterRelatedPosts(post, posts)))
}

// handleAdminReload re-reads the content directory into the index.
func (a *App) handleAdminReload(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if err := a.ReloadContent(); err != nil {
		c.Logger().Errorf("reload content: %v", err)
		return c.Redirect(http.StatusSeeOther, "/admin/?msg=reload+failed")
	}
	return a.renderAdminDashboard(c, "content reloaded")
}

// handleAdminRebuild exports the static site to the configured output dir.
func (a *App) handleAdminRebuild(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	result, err := a.Export(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("rebuild: %v", err)
		return c.Redirect(http.StatusSeeOther, "/admin/?msg=rebuild+failed")
	}
	return a.renderAdminDashboard(c, result.String())
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	posts, err := a.Store.ListAllPosts()
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(posts, a.Problems(), msg, CsrfToken(c)))
}
