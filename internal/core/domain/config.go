package domain

import "time"

const (
	// DefaultTarget is the syntax dialect bundles are lowered to.
	DefaultTarget = "es2015"

	// DefaultFormat is the output module format.
	DefaultFormat = "iife"

	// DefaultHost is the interface the development server binds to.
	DefaultHost = "localhost"

	// DefaultPort is the port the development server listens on.
	DefaultPort = 3000

	// DefaultDebounce is the window used to coalesce file system events.
	DefaultDebounce = 100 * time.Millisecond
)

// SupportedTargets lists the syntax dialects a bundle can be lowered to.
func SupportedTargets() []string {
	return []string{"es5", "es2015", "es2016", "es2017", "es2018", "es2019", "es2020", "es2021", "es2022", "esnext"}
}

// SupportedFormats lists the output module formats.
func SupportedFormats() []string {
	return []string{"iife", "esm", "cjs"}
}

// DefaultSourcePatterns lists the file name patterns that trigger a rebuild.
func DefaultSourcePatterns() []string {
	return []string{"*.js", "*.mjs", "*.jsx", "*.ts"}
}

// Config is the resolved project configuration.
type Config struct {
	Layout Layout
	Bundle BundleSettings
	Server ServerSettings
	Watch  WatchSettings
	Static StaticSettings
}

// BundleSettings tunes the bundler.
type BundleSettings struct {
	Target string
	Format string
	Define map[string]string
}

// ServerSettings tunes the development server.
type ServerSettings struct {
	Host string
	Port int
	Open bool
}

// WatchSettings tunes the file watchers.
type WatchSettings struct {
	SourcePatterns []string
	Debounce       time.Duration
}

// StaticSettings tunes the static copier.
type StaticSettings struct {
	// Minify enables minification of text assets in production mode.
	Minify bool
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	return Config{
		Layout: DefaultLayout(),
		Bundle: BundleSettings{
			Target: DefaultTarget,
			Format: DefaultFormat,
		},
		Server: ServerSettings{
			Host: DefaultHost,
			Port: DefaultPort,
			Open: true,
		},
		Watch: WatchSettings{
			SourcePatterns: DefaultSourcePatterns(),
			Debounce:       DefaultDebounce,
		},
	}
}

// BundleRequest builds the bundler request for mode from the configuration.
func (c Config) BundleRequest(mode Mode) BundleRequest {
	return BundleRequest{
		Entry:   c.Layout.EntryPath(),
		OutDir:  c.Layout.ScriptsPath(),
		OutFile: c.Layout.Bundle,
		Mode:    mode,
		Target:  c.Bundle.Target,
		Format:  c.Bundle.Format,
		Define:  c.Bundle.Define,
	}
}
