package domain

import (
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

const (
	// DefaultSourceDir is the directory holding the JavaScript sources.
	DefaultSourceDir = "src"

	// DefaultStaticDir is the directory holding files copied verbatim into the output.
	DefaultStaticDir = "static"

	// DefaultOutputDir is the build output root. Its contents are owned by forge.
	DefaultOutputDir = "dist"

	// DefaultScriptsDir is the output subdirectory receiving the bundle.
	DefaultScriptsDir = "js"

	// DefaultEntryFile is the entry module, relative to the source root.
	DefaultEntryFile = "main.js"

	// DefaultBundleFile is the file name of the bundled output.
	DefaultBundleFile = "app.js"

	// SourceMapExt is appended to the bundle file name to name the source map.
	SourceMapExt = ".map"

	// ConfigFileName is the name of the optional project configuration file.
	ConfigFileName = "forge.yaml"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// Layout names every path the pipeline reads from or writes to.
// All fields are relative to the project root unless they are absolute.
type Layout struct {
	Source  string
	Static  string
	Output  string
	Scripts string
	Entry   string
	Bundle  string
}

// DefaultLayout returns the conventional project layout.
func DefaultLayout() Layout {
	return Layout{
		Source:  DefaultSourceDir,
		Static:  DefaultStaticDir,
		Output:  DefaultOutputDir,
		Scripts: DefaultScriptsDir,
		Entry:   DefaultEntryFile,
		Bundle:  DefaultBundleFile,
	}
}

// ScriptsPath returns the directory the bundle is written to.
func (l Layout) ScriptsPath() string {
	return filepath.Join(l.Output, l.Scripts)
}

// EntryPath returns the path of the entry module.
func (l Layout) EntryPath() string {
	return filepath.Join(l.Source, l.Entry)
}

// BundlePath returns the path of the bundled output file.
func (l Layout) BundlePath() string {
	return filepath.Join(l.ScriptsPath(), l.Bundle)
}

// SourceMapName returns the file name of the development source map.
func (l Layout) SourceMapName() string {
	return l.Bundle + SourceMapExt
}

// SourceMapPath returns the path of the development source map.
func (l Layout) SourceMapPath() string {
	return filepath.Join(l.ScriptsPath(), l.SourceMapName())
}

// Resolve returns a copy of the layout with every directory anchored at root.
func (l Layout) Resolve(root string) Layout {
	anchor := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(root, p)
	}
	l.Source = anchor(l.Source)
	l.Static = anchor(l.Static)
	l.Output = anchor(l.Output)
	return l
}

// Validate checks that the layout is complete and that the output root
// cannot swallow the trees it is rebuilt from.
func (l Layout) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"source", l.Source},
		{"static", l.Static},
		{"output", l.Output},
		{"scripts", l.Scripts},
		{"entry", l.Entry},
		{"bundle", l.Bundle},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return zerr.With(ErrInvalidLayout, "empty_path", f.name)
		}
	}

	if filepath.IsAbs(l.Scripts) || escapes(l.Scripts) {
		return zerr.With(ErrInvalidLayout, "scripts", l.Scripts)
	}
	if l.Bundle != filepath.Base(l.Bundle) {
		return zerr.With(ErrInvalidLayout, "bundle", l.Bundle)
	}

	for _, tree := range []string{l.Source, l.Static} {
		if within(l.Output, tree) || within(tree, l.Output) {
			return zerr.With(zerr.With(ErrInvalidLayout, "output", l.Output), "overlaps", tree)
		}
	}

	return nil
}

// escapes reports whether a relative path climbs out of its base.
func escapes(rel string) bool {
	clean := filepath.Clean(rel)
	return clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator))
}

// within reports whether path equals dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || !escapes(rel)
}
