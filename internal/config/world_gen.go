package config

import (
	"voxmesh/internal/world"
)

// GeneratorConfig selects the terrain generator that fills the map.
type GeneratorConfig struct {
	Type string `yaml:"type"`
	Seed int64  `yaml:"seed"`
	// FlatHeight limits the flat generator to world Y below it; 0 fills the map.
	FlatHeight int `yaml:"flat_height"`
}

func (g GeneratorConfig) ParseType() (world.GeneratorType, error) {
	return world.ParseGeneratorType(g.Type)
}

// Build returns the configured generator.
func (g GeneratorConfig) Build() (world.TerrainGenerator, error) {
	t, err := g.ParseType()
	if err != nil {
		return nil, err
	}
	if t == world.GeneratorFlat {
		return world.NewFlatGenerator(g.FlatHeight), nil
	}
	return world.NewGenerator(t, g.Seed)
}
