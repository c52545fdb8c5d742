package ports

import "go.trai.ch/forge/internal/core/domain"

// ConfigLoader defines the interface for loading the project configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration file at path and merges it over the defaults.
	// A missing file yields the default configuration. Relative layout paths are
	// anchored at the directory containing the file.
	Load(path string) (domain.Config, error)
}
