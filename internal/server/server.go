// Package server provides the development HTTP file server and the
// watch-rebuild loop around the build orchestrator.
package server

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Static serves the output directory on the given port. Directory requests
// resolve to their index.html; misses fall back to a custom 404 page when
// present, else to the site's root index. Traversal sequences are
// neutralized before any path touches the filesystem.
func Static(outDir string, port int) error {
	handler := StaticHandler(outDir, false)
	addr := fmt.Sprintf(":%d", port)
	slog.Info("serving site", "addr", "http://localhost"+addr, "dir", outDir)
	return http.ListenAndServe(addr, handler)
}

// StaticHandler builds the file-serving handler. With liveReload set, the
// reload script is injected into served HTML documents.
func StaticHandler(outDir string, liveReload bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// path.Clean on a rooted path strips any ".." segments.
		clean := path.Clean("/" + r.URL.Path)
		file := filepath.Join(outDir, filepath.FromSlash(clean))

		if info, err := os.Stat(file); err == nil && info.IsDir() {
			file = filepath.Join(file, "index.html")
		}

		status := http.StatusOK
		if _, err := os.Stat(file); err != nil {
			notFound := filepath.Join(outDir, "404.html")
			if _, err := os.Stat(notFound); err == nil {
				file = notFound
				status = http.StatusNotFound
			} else {
				file = filepath.Join(outDir, "index.html")
			}
		}

		body, err := os.ReadFile(file)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if liveReload && strings.HasSuffix(file, ".html") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			body = bytes.Replace(body, []byte("</body>"), []byte(liveReloadScript+"</body>"), 1)
		}
		if ct := contentType(file); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		w.WriteHeader(status)
		w.Write(body)
	})
}

func contentType(file string) string {
	switch filepath.Ext(file) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "application/javascript"
	case ".json":
		return "application/json"
	case ".xml":
		return "application/xml"
	case ".svg":
		return "image/svg+xml"
	default:
		return ""
	}
}

const liveReloadScript = `
<script>
  (function() {
    let socket = new WebSocket("ws://" + window.location.host + "/ws");
    socket.onmessage = function(event) {
      if (event.data === "reload") {
        window.location.reload();
      }
    };
    socket.onerror = function() {
      console.error("Live reload connection lost. Restart the dev server.");
    };
  })();
</script>
`
