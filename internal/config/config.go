package config

import (
	"os"
	"strings"

	"voxmesh/internal/meshing"
	"voxmesh/internal/world"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvConfigPath = "VOXMESH_CONFIG"
	EnvStrategy   = "VOXMESH_STRATEGY"
)

// Config is the root of the YAML run configuration.
type Config struct {
	Map       MapConfig       `yaml:"map"`
	Generator GeneratorConfig `yaml:"generator"`
	Meshing   MeshingConfig   `yaml:"meshing"`
	Materials []string        `yaml:"materials"`
	Export    ExportConfig    `yaml:"export"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type MapConfig struct {
	// Size is the map extent in chunks, x y z.
	Size      [3]int `yaml:"size"`
	ChunkSize int    `yaml:"chunk_size"`
}

// Info converts the section to a world.MapInfo.
func (m MapConfig) Info() world.MapInfo {
	return world.MapInfo{
		Size:      world.Coord{X: m.Size[0], Y: m.Size[1], Z: m.Size[2]},
		ChunkSize: m.ChunkSize,
	}
}

type MeshingConfig struct {
	Strategy        string `yaml:"strategy"`
	ReservedCores   int    `yaml:"reserved_cores"`
	ChunksPerWorker int    `yaml:"chunks_per_worker"`
	MaxWorkers      int    `yaml:"max_workers"`
}

func (m MeshingConfig) ParseStrategy() (meshing.Strategy, error) {
	return meshing.ParseStrategy(m.Strategy)
}

func (m MeshingConfig) Tuning() meshing.Tuning {
	return meshing.Tuning{
		ReservedCores:   m.ReservedCores,
		ChunksPerWorker: m.ChunksPerWorker,
		MaxWorkers:      m.MaxWorkers,
	}
}

type ExportConfig struct {
	// Path of the glTF file; empty disables export.
	Path   string `yaml:"path"`
	Binary bool   `yaml:"binary"`
}

type MetricsConfig struct {
	// Addr to serve /metrics on; empty disables the endpoint.
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	t := meshing.DefaultTuning()
	return &Config{
		Map: MapConfig{Size: [3]int{8, 4, 8}, ChunkSize: 16},
		Generator: GeneratorConfig{
			Type: world.GeneratorHeightmap.String(),
			Seed: 1,
		},
		Meshing: MeshingConfig{
			Strategy:        meshing.StrategyFullGreedy.String(),
			ReservedCores:   t.ReservedCores,
			ChunksPerWorker: t.ChunksPerWorker,
			MaxWorkers:      t.MaxWorkers,
		},
		Materials: meshing.DefaultMaterials(),
	}
}

// Read loads a YAML file over the defaults without validating, so callers
// can apply their own overrides first. An empty path falls back to
// $VOXMESH_CONFIG, and to the defaults alone if that is unset too.
// $VOXMESH_STRATEGY overrides the meshing strategy in every case.
func Read(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}
	if s := strings.TrimSpace(os.Getenv(EnvStrategy)); s != "" {
		cfg.Meshing.Strategy = s
	}
	return cfg, nil
}

// Load is Read followed by Validate.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Map.Info().Validate(); err != nil {
		return err
	}
	if _, err := c.Generator.ParseType(); err != nil {
		return err
	}
	if _, err := c.Meshing.ParseStrategy(); err != nil {
		return err
	}
	if err := c.Meshing.Tuning().Validate(); err != nil {
		return errors.Wrap(err, "meshing")
	}
	if len(c.Materials) != world.NumberOfNonEmptyBlockTypes {
		return errors.Wrapf(meshing.ErrMaterialMismatch, "%d materials configured, %d block types",
			len(c.Materials), world.NumberOfNonEmptyBlockTypes)
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
