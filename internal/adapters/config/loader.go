// Package config provides the configuration loader for forge.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the configuration at path and overlays it on the defaults.
// An empty path looks for forge.yaml in the working directory and falls back
// to the defaults when it does not exist. Paths in the file are resolved
// relative to the directory holding it.
func (l *Loader) Load(path string) (domain.Config, error) {
	explicit := path != ""
	if !explicit {
		path = domain.ConfigFileName
	}

	// #nosec G304 -- path is supplied by the user on the command line
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, fs.ErrNotExist):
		return domain.DefaultConfig(), nil
	default:
		return domain.Config{}, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	file, err := decode(data)
	if err != nil {
		return domain.Config{}, zerr.With(err, "path", path)
	}

	cfg, err := l.apply(domain.DefaultConfig(), file)
	if err != nil {
		return domain.Config{}, zerr.With(err, "path", path)
	}

	cfg.Layout = cfg.Layout.Resolve(filepath.Dir(path))
	return cfg, nil
}

// decode parses data strictly: unknown keys are rejected. An empty document is valid.
func decode(data []byte) (File, error) {
	var file File

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return File{}, zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}

	return file, nil
}

func (l *Loader) apply(cfg domain.Config, file File) (domain.Config, error) {
	if p := file.Paths; p != nil {
		override(&cfg.Layout.Source, p.Source)
		override(&cfg.Layout.Static, p.Static)
		override(&cfg.Layout.Output, p.Output)
		override(&cfg.Layout.Scripts, p.Scripts)
		override(&cfg.Layout.Entry, p.Entry)
		override(&cfg.Layout.Bundle, p.Bundle)
	}
	if err := cfg.Layout.Validate(); err != nil {
		return domain.Config{}, err
	}

	if b := file.Bundle; b != nil {
		override(&cfg.Bundle.Target, b.Target)
		override(&cfg.Bundle.Format, b.Format)
		if len(b.Define) > 0 {
			cfg.Bundle.Define = b.Define
		}
	}
	cfg.Bundle.Target = strings.ToLower(cfg.Bundle.Target)
	if !slices.Contains(domain.SupportedTargets(), cfg.Bundle.Target) {
		return domain.Config{}, zerr.With(domain.ErrConfigInvalid, "bundle.target", cfg.Bundle.Target)
	}
	cfg.Bundle.Format = strings.ToLower(cfg.Bundle.Format)
	if !slices.Contains(domain.SupportedFormats(), cfg.Bundle.Format) {
		return domain.Config{}, zerr.With(domain.ErrConfigInvalid, "bundle.format", cfg.Bundle.Format)
	}

	if s := file.Server; s != nil {
		override(&cfg.Server.Host, s.Host)
		if s.Port != 0 {
			cfg.Server.Port = s.Port
		}
		if s.Open != nil {
			cfg.Server.Open = *s.Open
		}
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return domain.Config{}, zerr.With(domain.ErrConfigInvalid, "server.port", cfg.Server.Port)
	}

	if w := file.Watch; w != nil {
		if len(w.Source) > 0 {
			if err := validatePatterns(w.Source); err != nil {
				return domain.Config{}, err
			}
			cfg.Watch.SourcePatterns = w.Source
		}
		if w.Debounce != "" {
			d, err := time.ParseDuration(w.Debounce)
			if err != nil || d < 0 {
				return domain.Config{}, zerr.With(domain.ErrConfigInvalid, "watch.debounce", w.Debounce)
			}
			cfg.Watch.Debounce = d
			if d == 0 {
				l.Logger.Warn("watch.debounce is 0, every file event triggers a run")
			}
		}
	}

	if file.Static != nil {
		cfg.Static.Minify = file.Static.Minify
	}

	return cfg, nil
}

func validatePatterns(patterns []string) error {
	for _, p := range patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return zerr.With(domain.ErrConfigInvalid, "watch.source", p)
		}
	}
	return nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
