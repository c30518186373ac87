package config

// File represents the structure of the cargo-metadata-mcp configuration file.
type File struct {
	Cache CacheDTO `yaml:"cache" toml:"cache"`
	Cargo CargoDTO `yaml:"cargo" toml:"cargo"`
	Log   LogDTO   `yaml:"log"   toml:"log"`
}

// CacheDTO represents the snapshot cache section.
type CacheDTO struct {
	Policy string `yaml:"policy" toml:"policy"`
}

// CargoDTO represents how `cargo metadata` is invoked.
type CargoDTO struct {
	Path              string   `yaml:"path"                toml:"path"`
	Features          []string `yaml:"features"            toml:"features"`
	AllFeatures       bool     `yaml:"all_features"        toml:"all_features"`
	NoDefaultFeatures bool     `yaml:"no_default_features" toml:"no_default_features"`
	NoDeps            bool     `yaml:"no_deps"             toml:"no_deps"`
	FilterPlatform    string   `yaml:"filter_platform"     toml:"filter_platform"`
	Offline           bool     `yaml:"offline"             toml:"offline"`
	Locked            bool     `yaml:"locked"              toml:"locked"`
	Frozen            bool     `yaml:"frozen"              toml:"frozen"`
	// Timeout is a Go duration string such as "30s".
	Timeout string `yaml:"timeout" toml:"timeout"`
}

// LogDTO represents the logging section.
type LogDTO struct {
	Level  string `yaml:"level"  toml:"level"`
	Format string `yaml:"format" toml:"format"`
}
