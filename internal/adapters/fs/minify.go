package fs

import (
	"path/filepath"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/json"
	"github.com/tdewolff/minify/v2/svg"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/zerr"
)

var mediaTypes = map[string]string{
	".css":  "text/css",
	".htm":  "text/html",
	".html": "text/html",
	".svg":  "image/svg+xml",
	".json": "application/json",
}

// Minifier minifies text assets by file extension.
type Minifier struct {
	m *minify.M
}

// NewMinifier creates a Minifier handling CSS, HTML, SVG and JSON.
func NewMinifier() *Minifier {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	m.AddFunc("application/json", json.Minify)
	return &Minifier{m: m}
}

// MediaType returns the media type used to minify path, if any.
func (m *Minifier) MediaType(path string) (string, bool) {
	mt, ok := mediaTypes[strings.ToLower(filepath.Ext(path))]
	return mt, ok
}

// Minify returns the minified form of data. The second result is false when
// the file type is not handled and data is returned untouched.
func (m *Minifier) Minify(path string, data []byte) ([]byte, bool, error) {
	mt, ok := m.MediaType(path)
	if !ok {
		return data, false, nil
	}

	out, err := m.m.Bytes(mt, data)
	if err != nil {
		return nil, false, zerr.With(zerr.Wrap(err, domain.ErrMinifyFailed.Error()), "path", path)
	}
	return out, true, nil
}
