// Package sourcemap splits inline source maps out of generated scripts.
package sourcemap

import (
	"bytes"
	"encoding/base64"
	"encoding/json"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	commentPrefix = "//# sourceMappingURL="
	dataPrefix    = "data:application/json;"
	base64Marker  = "base64,"
)

// Extract decodes the inline source map carried by the trailing
// sourceMappingURL comment of code. It returns code with that comment
// rewritten to point at mapFileName, and the decoded map.
func Extract(code []byte, mapFileName string) (out, sourceMap []byte, err error) {
	start, end, ok := trailingComment(code)
	if !ok {
		return nil, nil, domain.ErrSourceMapMissing
	}

	url := bytes.TrimSpace(code[start+len(commentPrefix) : end])
	if !bytes.HasPrefix(url, []byte(dataPrefix)) {
		return nil, nil, zerr.With(domain.ErrSourceMapMissing, "url", string(url))
	}

	i := bytes.Index(url, []byte(base64Marker))
	if i < 0 {
		return nil, nil, zerr.With(domain.ErrSourceMapDecode, "reason", "payload is not base64")
	}
	payload := url[i+len(base64Marker):]

	sourceMap = make([]byte, base64.StdEncoding.DecodedLen(len(payload)))
	n, err := base64.StdEncoding.Decode(sourceMap, payload)
	if err != nil {
		return nil, nil, zerr.Wrap(err, domain.ErrSourceMapDecode.Error())
	}
	sourceMap = sourceMap[:n]
	if !json.Valid(sourceMap) {
		return nil, nil, zerr.With(domain.ErrSourceMapDecode, "reason", "payload is not json")
	}

	out = make([]byte, 0, start+len(commentPrefix)+len(mapFileName)+1)
	out = append(out, code[:start]...)
	out = append(out, commentPrefix...)
	out = append(out, mapFileName...)
	out = append(out, '\n')

	return out, sourceMap, nil
}

// Strip removes a trailing sourceMappingURL comment, if any.
func Strip(code []byte) []byte {
	start, _, ok := trailingComment(code)
	if !ok {
		return code
	}
	return code[:start]
}

// trailingComment locates a sourceMappingURL comment on the last non-empty
// line of code. end excludes the line terminator.
func trailingComment(code []byte) (start, end int, ok bool) {
	trimmed := bytes.TrimRight(code, " \t\r\n")
	lineStart := bytes.LastIndexByte(trimmed, '\n') + 1

	if !bytes.HasPrefix(trimmed[lineStart:], []byte(commentPrefix)) {
		return 0, 0, false
	}
	return lineStart, len(trimmed), true
}
