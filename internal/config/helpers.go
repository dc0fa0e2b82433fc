package config

import "path/filepath"

// Built-in defaults for the engine limits. The on-disk format carries no
// sizing hints of its own, so these bound a single read session.
const (
	// DefaultChunkSize is the preferred number of points decoded per mapped access
	DefaultChunkSize = 4096

	// ChunkSizeLimit is the hard cap on points decoded per mapped access
	ChunkSizeLimit = 262144

	// MaxMetaSize is the maximum accepted .meta file size in bytes
	MaxMetaSize = 1024

	// MaxDataSize is the maximum accepted .dat file size in bytes (100 MiB)
	MaxDataSize = 100 * 1024 * 1024
)

// DefaultConfig returns a configuration with all defaults applied
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			DataDir:          "./data",
			DefaultChunkSize: DefaultChunkSize,
			ChunkSizeLimit:   ChunkSizeLimit,
			MaxMetaSize:      MaxMetaSize,
			MaxDataSize:      MaxDataSize,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}

// DataPath returns the full path for a file under the data directory
func (c *Config) DataPath(filename string) string {
	return filepath.Join(c.Engine.DataDir, filename)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}
