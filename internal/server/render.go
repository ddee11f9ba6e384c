package server

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
)

// render executes a page template into a buffer first so a template error
// never leaves a half-written page behind.
func render(w http.ResponseWriter, logger *slog.Logger, pages *template.Template, name string, status int, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Error("rendering page", "page", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
