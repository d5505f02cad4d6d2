package config

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Config captures the tunables of the terrain streamer. It is read once at
// startup; changing it while chunks are in flight is not supported.
type Config struct {
	// Streaming
	ViewDistance          float32 `yaml:"view_distance"`            // world units
	ChunkSize             int     `yaml:"chunk_size"`               // voxels per axis, including the shared layer
	MaxMeshBuildsPerFrame int     `yaml:"max_mesh_builds_per_frame"`
	WorldScale            float32 `yaml:"world_scale"` // world units per voxel
	Workers               int     `yaml:"workers"`     // extraction goroutines, 0 = GOMAXPROCS

	// Generation
	Seed             int64   `yaml:"seed"`
	MaxTerrainHeight float32 `yaml:"max_terrain_height"`
	TreesPerChunk    int     `yaml:"trees_per_chunk"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		ViewDistance:          96,
		ChunkSize:             16,
		MaxMeshBuildsPerFrame: 4,
		WorldScale:            1,
		Workers:               0,
		Seed:                  1337,
		MaxTerrainHeight:      48,
		TreesPerChunk:         3,
		LogLevel:              "info",
	}
}

// Load reads a yaml file on top of Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var err error
	if c.ChunkSize < 2 {
		err = multierr.Append(err, fmt.Errorf("chunk_size must be at least 2, got %d", c.ChunkSize))
	}
	if c.ViewDistance <= 0 {
		err = multierr.Append(err, fmt.Errorf("view_distance must be positive, got %g", c.ViewDistance))
	}
	if c.MaxMeshBuildsPerFrame < 1 {
		err = multierr.Append(err, fmt.Errorf("max_mesh_builds_per_frame must be at least 1, got %d", c.MaxMeshBuildsPerFrame))
	}
	if c.WorldScale <= 0 {
		err = multierr.Append(err, fmt.Errorf("world_scale must be positive, got %g", c.WorldScale))
	}
	if c.Workers < 0 {
		err = multierr.Append(err, errors.New("workers cannot be negative"))
	}
	if c.TreesPerChunk < 0 {
		err = multierr.Append(err, errors.New("trees_per_chunk cannot be negative"))
	}
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ChunkExtent is the world-space edge length of one chunk.
func (c Config) ChunkExtent() float32 {
	return float32(c.ChunkSize-1) * c.WorldScale
}
