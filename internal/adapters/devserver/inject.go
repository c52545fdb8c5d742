package devserver

import (
	"bytes"
	_ "embed"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	// SocketPath is the websocket endpoint of the live reload hub.
	SocketPath = "/__forge/ws"
	// ScriptPath serves the live reload client.
	ScriptPath = "/__forge/reload.js"
)

//go:embed reload.js
var reloadScript []byte

var scriptTag = []byte(`<script src="` + ScriptPath + `"></script>`)

// inject places the live reload script tag before the last closing body tag,
// or appends it when the document has none.
func inject(page []byte) []byte {
	i := bytes.LastIndex(bytes.ToLower(page), []byte("</body>"))
	if i < 0 {
		out := make([]byte, 0, len(page)+len(scriptTag)+1)
		out = append(out, page...)
		out = append(out, '\n')
		return append(out, scriptTag...)
	}

	out := make([]byte, 0, len(page)+len(scriptTag))
	out = append(out, page[:i]...)
	out = append(out, scriptTag...)
	return append(out, page[i:]...)
}

func isHTML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// staticHandler serves root and injects the reload client into HTML pages.
type staticHandler struct {
	root  string
	files http.Handler
}

func newStaticHandler(root string) *staticHandler {
	return &staticHandler{root: root, files: http.FileServer(http.Dir(root))}
}

func (s *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	name := s.resolve(r.URL.Path)
	if name == "" || !isHTML(name) {
		s.files.ServeHTTP(w, r)
		return
	}

	info, err := os.Stat(name)
	if err != nil {
		s.files.ServeHTTP(w, r)
		return
	}
	page, err := os.ReadFile(name) //nolint:gosec // name is confined to root by resolve
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, filepath.Base(name), info.ModTime(), bytes.NewReader(inject(page)))
}

// resolve maps a URL path to a file below root, following directory index
// files. It returns "" when nothing regular matches, or for a directory
// requested without its trailing slash, which the file server redirects.
func (s *staticHandler) resolve(urlPath string) string {
	clean := path.Clean("/" + urlPath)
	name := filepath.Join(s.root, filepath.FromSlash(clean))

	info, err := os.Stat(name)
	if err != nil {
		return ""
	}
	if info.IsDir() {
		if !strings.HasSuffix(urlPath, "/") {
			return ""
		}
		name = filepath.Join(name, "index.html")
		if info, err = os.Stat(name); err != nil || !info.Mode().IsRegular() {
			return ""
		}
	}
	return name
}

func serveScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(reloadScript)
}
