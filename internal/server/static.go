package server

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/playperu/demovote/internal/web"
)

// handleStatic serves the page assets under /static/. When dir names an
// existing directory, files found there take precedence over the embedded
// copies so the pages can be restyled without a rebuild.
func handleStatic(logger *slog.Logger, dir string) http.Handler {
	embedded := http.FileServerFS(web.Static())

	if dir == "" {
		return http.StripPrefix("/static/", embedded)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		logger.Warn("static override dir unusable, serving embedded assets", "dir", dir)
		return http.StripPrefix("/static/", embedded)
	}
	logger.Info("serving static overrides", "dir", dir)
	disk := http.FileServer(http.Dir(dir))

	return http.StripPrefix("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Join(dir, filepath.Clean("/"+strings.TrimPrefix(r.URL.Path, "/")))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			disk.ServeHTTP(w, r)
			return
		}
		embedded.ServeHTTP(w, r)
	}))
}
