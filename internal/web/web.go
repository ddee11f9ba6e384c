// Package web embeds the editor and booth page templates and their assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var funcs = template.FuncMap{
	"imgsrc":  imageSrc,
	"telhref": telHref,
}

// Templates parses the embedded page templates. Pages are looked up by
// file name, e.g. "booth.html".
func Templates() *template.Template {
	return template.Must(template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

// Static returns the asset tree served under /static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// imageSrc lets embedded JPEG/PNG data URIs through html/template, which
// rewrites any non-http URL in a src attribute to a placeholder.
func imageSrc(s string) template.URL {
	if strings.HasPrefix(s, "data:image/") {
		return template.URL(s)
	}
	return ""
}

func telHref(s string) template.URL {
	if strings.HasPrefix(s, "tel:") {
		return template.URL(s)
	}
	return ""
}
