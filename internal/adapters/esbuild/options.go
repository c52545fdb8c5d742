package esbuild

import (
	"maps"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/zerr"
)

var targets = map[string]api.Target{
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

var formats = map[string]api.Format{
	"iife": api.FormatIIFE,
	"esm":  api.FormatESModule,
	"cjs":  api.FormatCommonJS,
}

// buildOptions translates a request into esbuild options. Output is kept in
// memory; the bundler writes artifacts itself once the whole run succeeded.
func buildOptions(req domain.BundleRequest) (api.BuildOptions, error) {
	target, ok := targets[strings.ToLower(orDefault(req.Target, domain.DefaultTarget))]
	if !ok {
		return api.BuildOptions{}, zerr.With(domain.ErrBundleFailed, "unsupported_target", req.Target)
	}
	format, ok := formats[strings.ToLower(orDefault(req.Format, domain.DefaultFormat))]
	if !ok {
		return api.BuildOptions{}, zerr.With(domain.ErrBundleFailed, "unsupported_format", req.Format)
	}

	env := "development"
	if req.Mode.IsProduction() {
		env = "production"
	}
	define := map[string]string{"process.env.NODE_ENV": `"` + env + `"`}
	maps.Copy(define, req.Define)

	opts := api.BuildOptions{
		EntryPoints: []string{req.Entry},
		Outfile:     filepath.Join(req.OutDir, req.OutFile),
		Bundle:      true,
		Write:       false,
		Target:      target,
		Format:      format,
		Platform:    api.PlatformBrowser,
		Define:      define,
		LogLevel:    api.LogLevelSilent,
	}

	if req.Mode.IsProduction() {
		opts.Sourcemap = api.SourceMapNone
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
	} else {
		opts.Sourcemap = api.SourceMapInline
	}

	return opts, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func toMessages(in []api.Message) []domain.Message {
	out := make([]domain.Message, 0, len(in))
	for _, m := range in {
		msg := domain.Message{Text: m.Text}
		if m.Location != nil {
			msg.File = m.Location.File
			msg.Line = m.Location.Line
			msg.Column = m.Location.Column
		}
		out = append(out, msg)
	}
	return out
}
