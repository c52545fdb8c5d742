package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Copier = (*Copier)(nil)

// Copier mirrors the static assets tree into the output root.
type Copier struct {
	logger   ports.Logger
	walker   *Walker
	hasher   *Hasher
	minifier *Minifier
}

// NewCopier creates a new Copier.
func NewCopier(logger ports.Logger, walker *Walker, hasher *Hasher, minifier *Minifier) *Copier {
	return &Copier{
		logger:   logger,
		walker:   walker,
		hasher:   hasher,
		minifier: minifier,
	}
}

// Copy copies every regular file below src to the same relative path below dst.
// It never deletes anything in dst. A missing src is reported as a warning.
func (c *Copier) Copy(ctx context.Context, src, dst string, opts domain.CopyOptions) (domain.CopyReport, error) {
	var report domain.CopyReport

	info, err := os.Stat(src)
	if errors.Is(err, iofs.ErrNotExist) {
		c.logger.Warn(fmt.Sprintf("static directory %s does not exist, nothing to copy", src))
		return report, nil
	}
	if err != nil {
		return report, wrapCopy(err, src)
	}
	if !info.IsDir() {
		return report, zerr.With(zerr.With(domain.ErrCopyFailed, "path", src), "reason", "not a directory")
	}

	for path, walkErr := range c.walker.WalkFiles(src, nil) {
		if walkErr != nil {
			return report, wrapCopy(walkErr, src)
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return report, wrapCopy(err, path)
		}

		written, minified, err := c.copyFile(path, filepath.Join(dst, rel), opts)
		if err != nil {
			return report, err
		}
		if minified {
			report.Minified++
		}
		if written {
			report.Copied++
		} else {
			report.Unchanged++
		}
	}

	return report, nil
}

// copyFile copies one file and reports whether it was written and minified.
func (c *Copier) copyFile(src, dst string, opts domain.CopyOptions) (written, minified bool, err error) {
	data, err := os.ReadFile(src) //nolint:gosec // Path comes from walking the static root
	if err != nil {
		return false, false, wrapCopy(err, src)
	}

	if opts.Minify {
		data, minified, err = c.minifier.Minify(src, data)
		if err != nil {
			return false, false, err
		}
	}

	if opts.SkipUnchanged {
		same, err := c.hasher.Matches(dst, data)
		if err != nil {
			return false, minified, err
		}
		if same {
			return false, minified, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(dst), domain.DirPerm); err != nil {
		return false, minified, wrapCopy(err, dst)
	}
	if err := os.WriteFile(dst, data, domain.FilePerm); err != nil {
		return false, minified, wrapCopy(err, dst)
	}

	return true, minified, nil
}

func wrapCopy(err error, path string) error {
	return zerr.With(zerr.Wrap(err, domain.ErrCopyFailed.Error()), "path", path)
}
