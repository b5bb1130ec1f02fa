package pages

import (
	"embed"
	"html/template"
)

// TemplateName is the layout every view renders through.
const TemplateName = "page.html"

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page layout.
func Templates() (*template.Template, error) {
	return template.New("").ParseFS(templateFS, "templates/*.html")
}
