// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/forge/internal/core/domain"
)

// Bundler resolves, transpiles and concatenates a module graph into one artifact.
//
//go:generate mockgen -source=bundler.go -destination=mocks/mock_bundler.go -package=mocks
type Bundler interface {
	// Bundle runs the pipeline once. Failures are reported in the result and
	// leave previously written artifacts untouched.
	Bundle(ctx context.Context, req domain.BundleRequest) domain.BundleResult
}
