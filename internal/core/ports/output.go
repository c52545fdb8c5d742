package ports

import (
	"context"

	"go.trai.ch/forge/internal/core/domain"
)

// Cleaner empties the build output root.
//
//go:generate mockgen -source=output.go -destination=mocks/mock_output.go -package=mocks
type Cleaner interface {
	// Clean removes everything below root unless keep is armed, in which case
	// the token is consumed and nothing is deleted.
	Clean(ctx context.Context, root string, keep *domain.Suppression) (domain.CleanReport, error)
}

// Copier mirrors the static assets tree into the build output root.
type Copier interface {
	// Copy copies every file below src into dst, preserving relative paths.
	Copy(ctx context.Context, src, dst string, opts domain.CopyOptions) (domain.CopyReport, error)
}
