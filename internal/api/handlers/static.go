package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
)

// StaticHandler serves the UI files under dir for routes mounted at /static/*.
type StaticHandler struct {
	root  http.FileSystem
	files http.Handler
}

func NewStaticHandler(dir string) *StaticHandler {
	root := http.Dir(dir)
	return &StaticHandler{
		root:  root,
		files: http.StripPrefix("/static/", http.FileServer(root)),
	}
}

// Serve answers index.html paths with the file itself. http.FileServer
// redirects them to the bare directory instead.
func (h *StaticHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if path.Base(name) != "index.html" {
		h.files.ServeHTTP(w, r)
		return
	}

	f, err := h.root.Open(path.Clean("/" + name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "failed to open file", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// RedirectRoot sends /static to /static/.
func (h *StaticHandler) RedirectRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/static/", http.StatusMovedPermanently)
}
