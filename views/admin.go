package views

import (
	"bytes"
	"fmt"

	"github.com/a-h/templ"

	"github.com/NMFR/website"
)

func writeAdminHead(buf *bytes.Buffer, title string) {
	buf.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	buf.WriteString("<meta charset=\"utf-8\">\n")
	buf.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	buf.WriteString("<meta name=\"robots\" content=\"noindex\">\n")
	fmt.Fprintf(buf, "<title>%s</title>\n", esc(title))
	buf.WriteString("<link rel=\"stylesheet\" href=\"/public/styles.css\">\n")
	buf.WriteString("</head>\n")
}

// AdminLogin renders the admin login form.
func AdminLogin(showError bool, csrfToken string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		writeAdminHead(buf, "Admin login")
		buf.WriteString("<body class=\"admin\">\n<main class=\"login\">\n<h1>Admin</h1>\n")
		if showError {
			buf.WriteString("<p class=\"error\">Wrong password.</p>\n")
		}
		buf.WriteString("<form method=\"post\" action=\"/admin/login/\">\n")
		fmt.Fprintf(buf, "<input type=\"hidden\" name=\"_csrf\" value=\"%s\">\n", esc(csrfToken))
		buf.WriteString("<label>Password <input type=\"password\" name=\"password\" autofocus required></label>\n")
		buf.WriteString("<button type=\"submit\">Log in</button>\n")
		buf.WriteString("</form>\n</main>\n</body>\n</html>\n")
	})
}

// AdminDashboard lists all posts (drafts included) with content problems
// and the reload, rebuild, and preview actions.
func AdminDashboard(posts []website.Post, problems []string, message string, csrfToken string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		writeAdminHead(buf, "Admin")
		buf.WriteString("<body class=\"admin\">\n<main class=\"dashboard\">\n")
		buf.WriteString("<header class=\"admin-header\">\n<h1>Posts</h1>\n<nav>\n")
		buf.WriteString("<a href=\"/admin/images/\">Images</a>\n")
		buf.WriteString("<a href=\"/admin/analytics/api/stats\">Analytics</a>\n")
		buf.WriteString("<form method=\"post\" action=\"/admin/logout/\" class=\"inline\">\n")
		fmt.Fprintf(buf, "<input type=\"hidden\" name=\"_csrf\" value=\"%s\">\n", esc(csrfToken))
		buf.WriteString("<button type=\"submit\">Log out</button>\n</form>\n")
		buf.WriteString("</nav>\n</header>\n")

		if message != "" {
			fmt.Fprintf(buf, "<p class=\"message\">%s</p>\n", esc(message))
		}

		if len(problems) > 0 {
			buf.WriteString("<section class=\"problems\">\n<h2>Content problems</h2>\n<ul>\n")
			for _, p := range problems {
				fmt.Fprintf(buf, "<li>%s</li>\n", esc(p))
			}
			buf.WriteString("</ul>\n</section>\n")
		}

		buf.WriteString("<section class=\"actions\">\n")
		buf.WriteString("<form method=\"post\" action=\"/admin/reload/\" class=\"inline\">\n")
		fmt.Fprintf(buf, "<input type=\"hidden\" name=\"_csrf\" value=\"%s\">\n", esc(csrfToken))
		buf.WriteString("<button type=\"submit\">Reload content</button>\n</form>\n")
		buf.WriteString("<form method=\"post\" action=\"/admin/rebuild/\" class=\"inline\">\n")
		fmt.Fprintf(buf, "<input type=\"hidden\" name=\"_csrf\" value=\"%s\">\n", esc(csrfToken))
		buf.WriteString("<button type=\"submit\">Rebuild static site</button>\n</form>\n")
		buf.WriteString("</section>\n")

		buf.WriteString("<table class=\"post-list\">\n<thead><tr><th>Title</th><th>Date</th><th>Tags</th><th>Status</th><th></th></tr></thead>\n<tbody>\n")
		for _, post := range posts {
			status := "draft"
			link := fmt.Sprintf("/admin/preview/%s/", website.PathEscape(post.Slug))
			if post.Published {
				status = "published"
				link = fmt.Sprintf("/blog/%s/", website.PathEscape(post.Slug))
			}
			buf.WriteString("<tr>\n")
			fmt.Fprintf(buf, "<td><a href=\"%s\">%s</a></td>\n", link, esc(post.Title))
			fmt.Fprintf(buf, "<td>%s</td>\n", esc(post.Date))
			fmt.Fprintf(buf, "<td>%s</td>\n", esc(website.JoinTags(post.Tags)))
			fmt.Fprintf(buf, "<td>%s</td>\n", status)
			fmt.Fprintf(buf, "<td class=\"source\">%s</td>\n", esc(post.SourcePath))
			buf.WriteString("</tr>\n")
		}
		buf.WriteString("</tbody>\n</table>\n</main>\n</body>\n</html>\n")
	})
}

// AdminImages renders the image library with the upload form.
func AdminImages(images []website.Image, csrfToken string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		writeAdminHead(buf, "Images")
		buf.WriteString("<body class=\"admin\">\n<main class=\"images\">\n")
		buf.WriteString("<header class=\"admin-header\">\n<h1>Images</h1>\n<nav><a href=\"/admin/\">Posts</a></nav>\n</header>\n")

		buf.WriteString("<form method=\"post\" action=\"/admin/images/upload/\" enctype=\"multipart/form-data\">\n")
		fmt.Fprintf(buf, "<input type=\"hidden\" name=\"_csrf\" value=\"%s\">\n", esc(csrfToken))
		buf.WriteString("<input type=\"file\" name=\"image\" accept=\"image/*\" required>\n")
		buf.WriteString("<button type=\"submit\">Upload</button>\n</form>\n")

		if len(images) == 0 {
			buf.WriteString("<p class=\"empty\">No images uploaded yet.</p>\n")
		} else {
			buf.WriteString("<ul class=\"image-grid\">\n")
			for _, img := range images {
				buf.WriteString("<li>\n")
				fmt.Fprintf(buf, "<img src=\"/public/uploads/%s\" alt=\"%s\" loading=\"lazy\">\n",
					website.PathEscape(img.Filename), esc(img.OriginalName))
				fmt.Fprintf(buf, "<code>/public/uploads/%s</code>\n", esc(img.Filename))
				fmt.Fprintf(buf, "<span>%dx%d, %d bytes</span>\n", img.Width, img.Height, img.Size)
				fmt.Fprintf(buf, "<button type=\"button\" data-delete=\"/admin/images/%s/\" data-csrf=\"%s\">Delete</button>\n",
					website.PathEscape(img.Filename), esc(csrfToken))
				buf.WriteString("</li>\n")
			}
			buf.WriteString("</ul>\n")
			buf.WriteString(`<script>
document.querySelectorAll("[data-delete]").forEach(function(btn) {
  btn.addEventListener("click", function() {
    fetch(btn.dataset.delete, {
      method: "DELETE",
      headers: {"X-CSRF-Token": btn.dataset.csrf}
    }).then(function() { location.reload(); });
  });
});
</script>
`)
		}
		buf.WriteString("</main>\n</body>\n</html>\n")
	})
}
