// Package webui serves the built-in technician and patient pages. The pages
// are thin shells over the JSON API; all state lives server-side in the
// triage store.
package webui

import (
	"embed"
	"html/template"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

type renderer struct {
	templates *template.Template
}

func (r *renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// Register installs the template renderer and the page routes.
func Register(e *echo.Echo) {
	e.Renderer = &renderer{
		templates: template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
	e.GET("/", technicianPage)
	e.GET("/patient", patientPage)
}

func technicianPage(c echo.Context) error {
	return c.Render(http.StatusOK, "technician.html", map[string]any{
		"Title": "InsightRay Technician Worklist",
	})
}

func patientPage(c echo.Context) error {
	return c.Render(http.StatusOK, "patient.html", map[string]any{
		"Title": "InsightRay Patient View",
	})
}
