package config

// File represents the structure of the forge.yaml configuration file.
// Every section is optional; omitted values keep their defaults.
type File struct {
	Paths  *PathsDTO  `yaml:"paths"`
	Bundle *BundleDTO `yaml:"bundle"`
	Server *ServerDTO `yaml:"server"`
	Watch  *WatchDTO  `yaml:"watch"`
	Static *StaticDTO `yaml:"static"`
}

// PathsDTO overrides the project layout.
type PathsDTO struct {
	Source  string `yaml:"source"`
	Static  string `yaml:"static"`
	Output  string `yaml:"output"`
	Scripts string `yaml:"scripts"`
	Entry   string `yaml:"entry"`
	Bundle  string `yaml:"bundle"`
}

// BundleDTO tunes the bundler.
type BundleDTO struct {
	Target string            `yaml:"target"`
	Format string            `yaml:"format"`
	Define map[string]string `yaml:"define"`
}

// ServerDTO tunes the development server.
type ServerDTO struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Open *bool  `yaml:"open"`
}

// WatchDTO tunes the file watchers.
type WatchDTO struct {
	Source   []string `yaml:"source"`
	Debounce string   `yaml:"debounce"`
}

// StaticDTO tunes the static copier.
type StaticDTO struct {
	Minify bool `yaml:"minify"`
}
