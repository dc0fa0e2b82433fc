package config

import "fmt"

// Config represents the complete application configuration
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// EngineConfig represents the query engine configuration
type EngineConfig struct {
	DataDir string `mapstructure:"data_dir"` // Base directory holding .meta/.dat pairs

	// Chunk sizing, in points (one point = 4 bytes on disk)
	DefaultChunkSize int64 `mapstructure:"default_chunk_size"` // Preferred read size per mapped access
	ChunkSizeLimit   int64 `mapstructure:"chunk_size_limit"`   // Hard cap per mapped access

	// File size guards, in bytes
	MaxMetaSize int64 `mapstructure:"max_meta_size"` // Reject .meta files larger than this
	MaxDataSize int64 `mapstructure:"max_data_size"` // Reject .dat files larger than this
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json or console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or a file path
	TimeFormat string `mapstructure:"time_format"` // Time format for console output
}

// Validate checks the configuration for values the engine cannot work with
func (c *Config) Validate() error {
	if c.Engine.DataDir == "" {
		return fmt.Errorf("engine.data_dir must not be empty")
	}
	if c.Engine.DefaultChunkSize <= 0 {
		return fmt.Errorf("engine.default_chunk_size must be positive, got %d", c.Engine.DefaultChunkSize)
	}
	if c.Engine.ChunkSizeLimit < c.Engine.DefaultChunkSize {
		return fmt.Errorf("engine.chunk_size_limit (%d) must be >= engine.default_chunk_size (%d)",
			c.Engine.ChunkSizeLimit, c.Engine.DefaultChunkSize)
	}
	if c.Engine.MaxMetaSize <= 0 {
		return fmt.Errorf("engine.max_meta_size must be positive, got %d", c.Engine.MaxMetaSize)
	}
	if c.Engine.MaxDataSize <= 0 {
		return fmt.Errorf("engine.max_data_size must be positive, got %d", c.Engine.MaxDataSize)
	}
	return nil
}
