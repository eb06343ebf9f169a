package httpadapter

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// serveSPA serves the built frontend bundle with an index.html fallback so
// client-side routes refresh correctly. Without a bundle the root answers
// with a small JSON directory of the API surface.
func (rt *Router) serveSPA(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "method not allowed"})
		return
	}

	if rt.frontendDist == "" {
		rt.serveAPIDirectory(w)
		return
	}

	requested := strings.TrimPrefix(filepath.Clean("/"+r.URL.Path), "/")
	if requested == "" {
		requested = "index.html"
	}

	candidate := filepath.Join(rt.frontendDist, requested)
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		http.ServeFile(w, r, candidate)
		return
	}

	index := filepath.Join(rt.frontendDist, "index.html")
	if _, err := os.Stat(index); err != nil {
		rt.serveAPIDirectory(w)
		return
	}
	http.ServeFile(w, r, index)
}

func (rt *Router) serveAPIDirectory(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "complaint-intake",
		"endpoints": []string{
			"POST /submit-text",
			"POST /submit-voice",
			"GET /complaints",
			"PUT /complaints/{id}/status",
			"PUT /complaints/{id}/priority",
			"GET /complaints/export",
			"GET /healthz",
			"GET /metrics",
		},
	})
}
