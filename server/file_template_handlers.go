package server

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const layoutTemplate = "layout.html"

//go:embed templates/*
var templateFiles embed.FS

var numberPrinter = message.NewPrinter(language.English)

var templateFuncs = template.FuncMap{
	"number": func(v int) string {
		return numberPrinter.Sprintf("%d", v)
	},
	"decimal": func(v float64) string {
		return numberPrinter.Sprintf("%.1f", v)
	},
	"percent": func(v float64) string {
		return numberPrinter.Sprintf("%.1f%%", v)
	},
	"deref": func(v *string) string {
		if v == nil {
			return ""
		}
		return *v
	},
}

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page together with the shared layout from the embedded filesystem.
// Pages define "content"; render executes "layout".
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(name).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), layoutTemplate, name)
}

func mustParseTemplate(name string) *template.Template {
	tmpl, err := ParseTemplate(name)
	if err != nil {
		panic("Failed to parse " + name + " template: " + err.Error())
	}
	return tmpl
}

func render(w http.ResponseWriter, tmpl *template.Template, status int, data any) {
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		log.Err(err).Str("template", tmpl.Name()).Msg("Failed to render template")
	}
}
