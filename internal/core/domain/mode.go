package domain

// Mode selects between minified production output and sourcemapped development output.
type Mode uint8

const (
	// ModeDevelopment emits an unminified bundle with an external source map.
	ModeDevelopment Mode = iota
	// ModeProduction emits a minified bundle without source maps.
	ModeProduction
)

// ResolveMode maps the --production flag onto a Mode.
func ResolveMode(production bool) Mode {
	if production {
		return ModeProduction
	}
	return ModeDevelopment
}

// IsProduction reports whether m is ModeProduction.
func (m Mode) IsProduction() bool {
	return m == ModeProduction
}

func (m Mode) String() string {
	if m == ModeProduction {
		return "production"
	}
	return "development"
}
