package fs

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Cleaner = (*Cleaner)(nil)

// Cleaner empties the build output root.
type Cleaner struct{}

// NewCleaner creates a new Cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Clean removes every entry below root, keeping root itself. An armed keep
// token is consumed instead and nothing is deleted.
func (c *Cleaner) Clean(ctx context.Context, root string, keep *domain.Suppression) (domain.CleanReport, error) {
	if keep.Consume() {
		return domain.CleanReport{Skipped: true}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return domain.CleanReport{}, wrapClean(err, root)
	}

	var report domain.CleanReport
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		path := filepath.Join(root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return report, wrapClean(err, path)
		}
		report.Removed++
	}

	if err := os.MkdirAll(root, domain.DirPerm); err != nil {
		return report, wrapClean(err, root)
	}

	return report, nil
}

func wrapClean(err error, path string) error {
	return zerr.With(zerr.Wrap(err, domain.ErrCleanFailed.Error()), "path", path)
}
