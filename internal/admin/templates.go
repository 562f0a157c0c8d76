// ABOUTME: Template loading and rendering for the console UI.
// ABOUTME: Embeds HTML templates and provides render helpers.

package admin

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*
var templateFS embed.FS

var (
	layoutTmpl *template.Template
	pageTmpls  map[string]*template.Template
)

// pageDefinitions maps page names to their template files
func getPageDefinitions() map[string]string {
	return map[string]string{
		"console": "templates/console.html",
		"logs":    "templates/logs.html",
	}
}

// parsePageTemplates creates a map of page templates, each with its own copy of the layout
func parsePageTemplates() map[string]*template.Template {
	templates := make(map[string]*template.Template)
	for name, path := range getPageDefinitions() {
		tmpl := template.Must(layoutTmpl.Clone())
		templates[name] = template.Must(tmpl.ParseFS(templateFS, path))
	}
	return templates
}

func init() {
	layoutTmpl = template.Must(template.ParseFS(templateFS, "templates/layout.html"))
	pageTmpls = parsePageTemplates()
}

func renderPage(w io.Writer, page string, data any) error {
	tmpl, ok := pageTmpls[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}
