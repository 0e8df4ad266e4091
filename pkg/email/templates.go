package email

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

func loadTemplates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"date": func(t interface{ Format(string) string }) string {
			return t.Format("02 Jan 2006 15:04 MST")
		},
	}).ParseFS(templateFS, "templates/*.html")
}
