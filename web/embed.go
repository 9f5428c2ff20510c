// Package web embeds the static chat and persona-form pages and serves them.
package web

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
)

//go:embed static
var staticFS embed.FS

func subFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("web: failed to create sub filesystem: " + err.Error())
	}
	return sub
}

// StaticHandler serves the embedded assets. Mount it under /static/.
func StaticHandler() http.Handler {
	return http.StripPrefix("/static/", http.FileServer(http.FS(subFS())))
}

// PageHandler serves one embedded HTML page, e.g. "chat.html".
func PageHandler(name string) http.Handler {
	pages := subFS()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := fs.ReadFile(pages, strings.TrimPrefix(name, "/"))
		if err != nil {
			slog.Error("web: embedded page missing", "page", name, "error", err)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write(data); err != nil {
			slog.Debug("web: failed to write page", "page", name, "error", err)
		}
	})
}
