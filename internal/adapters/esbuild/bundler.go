// Package esbuild implements the bundler port on top of esbuild's Go API.
package esbuild

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/forge/internal/adapters/sourcemap"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Bundler = (*Bundler)(nil)

// Bundler resolves the module graph from the entry point, lowers it to the
// requested target and writes one bundle, plus a source map in development.
type Bundler struct {
	logger ports.Logger
}

// NewBundler creates a new Bundler.
func NewBundler(logger ports.Logger) *Bundler {
	return &Bundler{logger: logger}
}

// output is an artifact held in memory until the run is known to succeed.
type output struct {
	path string
	kind domain.ArtifactKind
	data []byte
}

// Bundle runs one build. The result's Err is a *domain.BuildError for
// resolution and syntax failures.
func (b *Bundler) Bundle(ctx context.Context, req domain.BundleRequest) domain.BundleResult {
	start := time.Now()
	if req.Mode.IsProduction() {
		b.logger.Success("Running production build...")
	} else {
		b.logger.Notice("Running development build...")
	}

	res := b.bundle(ctx, req)
	res.Duration = time.Since(start)

	if res.Err != nil {
		b.logger.Error(zerr.Wrap(res.Err, "[Build Error]"))
	}
	return res
}

func (b *Bundler) bundle(ctx context.Context, req domain.BundleRequest) domain.BundleResult {
	if err := ctx.Err(); err != nil {
		return domain.BundleResult{Err: err}
	}

	opts, err := buildOptions(req)
	if err != nil {
		return domain.BundleResult{Err: err}
	}

	result := run(ctx, opts)
	warnings := toMessages(result.Warnings)
	if err := ctx.Err(); err != nil {
		return domain.BundleResult{Warnings: warnings, Err: err}
	}
	if len(result.Errors) > 0 {
		return domain.BundleResult{Warnings: warnings, Err: &domain.BuildError{Messages: toMessages(result.Errors)}}
	}

	outputs, err := collect(req, result.OutputFiles)
	if err != nil {
		return domain.BundleResult{Warnings: warnings, Err: err}
	}

	artifacts, err := write(req, outputs)
	return domain.BundleResult{Artifacts: artifacts, Warnings: warnings, Err: err}
}

// run executes a cancellable esbuild build.
func run(ctx context.Context, opts api.BuildOptions) api.BuildResult {
	bctx, cerr := api.Context(opts)
	if cerr != nil {
		return api.BuildResult{Errors: cerr.Errors}
	}
	defer bctx.Dispose()

	stop := context.AfterFunc(ctx, bctx.Cancel)
	defer stop()

	return bctx.Rebuild()
}

// collect turns esbuild's in-memory output into the artifacts to write.
func collect(req domain.BundleRequest, files []api.OutputFile) ([]output, error) {
	bundlePath := filepath.Join(req.OutDir, req.OutFile)

	var code []byte
	for _, f := range files {
		if filepath.Base(f.Path) == req.OutFile {
			code = f.Contents
			break
		}
	}
	if code == nil {
		return nil, zerr.With(domain.ErrBundleFailed, "reason", "no output produced")
	}

	if req.Mode.IsProduction() {
		return []output{{path: bundlePath, kind: domain.ArtifactBundle, data: sourcemap.Strip(code)}}, nil
	}

	mapName := req.OutFile + domain.SourceMapExt
	code, sourceMap, err := sourcemap.Extract(code, mapName)
	if err != nil {
		return nil, err
	}
	// The map lands before the bundle that points at it.
	return []output{
		{path: filepath.Join(req.OutDir, mapName), kind: domain.ArtifactSourceMap, data: sourceMap},
		{path: bundlePath, kind: domain.ArtifactBundle, data: code},
	}, nil
}

// write stores each output atomically. A production build also removes a map
// left behind by an earlier development build.
func write(req domain.BundleRequest, outputs []output) ([]domain.Artifact, error) {
	if err := os.MkdirAll(req.OutDir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrBundleWriteFailed.Error()), "path", req.OutDir)
	}

	artifacts := make([]domain.Artifact, 0, len(outputs))
	for _, o := range outputs {
		if err := writeAtomic(o.path, o.data); err != nil {
			return artifacts, err
		}
		artifacts = append(artifacts, domain.Artifact{Path: o.path, Kind: o.kind, Size: int64(len(o.data))})
	}

	if req.Mode.IsProduction() {
		stale := filepath.Join(req.OutDir, req.OutFile+domain.SourceMapExt)
		if err := os.Remove(stale); err != nil && !errors.Is(err, iofs.ErrNotExist) {
			return artifacts, zerr.With(zerr.Wrap(err, domain.ErrBundleWriteFailed.Error()), "path", stale)
		}
	}

	return artifacts, nil
}

// writeAtomic writes data to a temporary sibling of path and renames it into place.
func writeAtomic(path string, data []byte) error {
	wrap := func(err error) error {
		return zerr.With(zerr.Wrap(err, domain.ErrBundleWriteFailed.Error()), "path", path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return wrap(err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // Already renamed on success

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return wrap(err)
	}
	if err := os.Chmod(tmp.Name(), domain.FilePerm); err != nil {
		return wrap(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return wrap(err)
	}
	return nil
}
