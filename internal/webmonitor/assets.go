package webmonitor

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// builtinAssets are served when AssetsDir has no file of the same name.
var builtinAssets = map[string]string{
	"monitor.css": monitorCSS,
	"monitor.js":  monitorJS,
}

type assetHandler struct {
	dir     string
	modTime time.Time
}

func newAssetHandler(dir string) *assetHandler {
	return &assetHandler{dir: dir, modTime: time.Now()}
}

func (h *assetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	filename := filepath.Base(r.URL.Path)
	if h.dir != "" {
		path := filepath.Join(h.dir, filename)
		if fileExists(path) {
			http.ServeFile(w, r, path)
			return
		}
	}

	body, ok := builtinAssets[filename]
	if !ok {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, filename, h.modTime, strings.NewReader(body))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
