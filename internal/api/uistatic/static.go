package uistatic

import (
	"embed"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed all:app
var consoleFS embed.FS

// Handler serves the embedded chat console. Real files are served as-is;
// every other path falls through to the console page so session links keep
// working after a reload.
func Handler() http.Handler {
	sub, err := fs.Sub(consoleFS, "app")
	if err != nil {
		return http.NotFoundHandler()
	}
	assets := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cleanPath := path.Clean(strings.TrimPrefix(r.URL.Path, "/"))
		if cleanPath == "." || cleanPath == "" {
			serveConsole(w, r, sub)
			return
		}

		if _, err := fs.Stat(sub, cleanPath); err == nil {
			assets.ServeHTTP(w, r)
			return
		}
		serveConsole(w, r, sub)
	})
}

// serveConsole writes the console page with no-store so clients pick up new
// builds immediately; the page itself is not content-hashed.
func serveConsole(w http.ResponseWriter, r *http.Request, filesystem fs.FS) {
	page, err := filesystem.Open("index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer func() { _ = page.Close() }()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = io.Copy(w, page)
}
