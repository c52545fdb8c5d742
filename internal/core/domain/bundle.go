package domain

import (
	"fmt"
	"strings"
	"time"
)

// ArtifactKind classifies files produced by the bundler.
type ArtifactKind string

const (
	// ArtifactBundle is the bundled JavaScript output.
	ArtifactBundle ArtifactKind = "bundle"
	// ArtifactSourceMap is the external source map for the bundle.
	ArtifactSourceMap ArtifactKind = "sourcemap"
)

// Artifact is a file written by a successful bundle run.
type Artifact struct {
	Path string
	Kind ArtifactKind
	Size int64
}

// BundleRequest describes one bundler invocation.
type BundleRequest struct {
	// Entry is the path of the entry module.
	Entry string
	// OutDir is the directory the artifacts are written to.
	OutDir string
	// OutFile is the file name of the bundle inside OutDir.
	OutFile string
	// Mode selects minification or source map extraction.
	Mode Mode
	// Target is the syntax dialect the output is lowered to, e.g. "es2015".
	Target string
	// Format is the output module format: "iife", "esm" or "cjs".
	Format string
	// Define holds global identifier replacements.
	Define map[string]string
}

// BundleResult is the single terminal outcome of a bundle run.
// Exactly one of Artifacts or Err is meaningful.
type BundleResult struct {
	Artifacts []Artifact
	Warnings  []Message
	Err       error
	Duration  time.Duration
}

// OK reports whether the run succeeded.
func (r BundleResult) OK() bool {
	return r.Err == nil
}

// Artifact returns the first artifact of the given kind.
func (r BundleResult) Artifact(kind ArtifactKind) (Artifact, bool) {
	for _, a := range r.Artifacts {
		if a.Kind == kind {
			return a, true
		}
	}
	return Artifact{}, false
}

// Message is a diagnostic reported by the bundler.
type Message struct {
	Text   string
	File   string
	Line   int
	Column int
}

func (m Message) String() string {
	if m.File == "" {
		return m.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", m.File, m.Line, m.Column, m.Text)
}

// BuildError reports a module resolution or transformation failure.
// It is recovered by long-running callers and never terminates the dev server.
type BuildError struct {
	Messages []Message
}

func (e *BuildError) Error() string {
	switch len(e.Messages) {
	case 0:
		return ErrBundleFailed.Error()
	case 1:
		return e.Messages[0].String()
	}
	lines := make([]string, len(e.Messages))
	for i, m := range e.Messages {
		lines[i] = m.String()
	}
	return fmt.Sprintf("%d errors\n%s", len(e.Messages), strings.Join(lines, "\n"))
}

// Unwrap lets errors.Is match ErrBundleFailed.
func (e *BuildError) Unwrap() error {
	return ErrBundleFailed
}
