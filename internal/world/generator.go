package world

import (
	"math"
	"strings"
	"sync"

	"github.com/aquilax/go-perlin"
	"github.com/pkg/errors"
)

// TerrainGenerator fills chunks with blocks. Generators run before meshing and
// never touch a chunk while a meshing pass is in progress.
type TerrainGenerator interface {
	PopulateChunk(c *Chunk, info MapInfo)
}

// GeneratorType selects one of the bundled terrain generators.
type GeneratorType int

const (
	GeneratorFlat GeneratorType = iota
	GeneratorNoise
	GeneratorHeightmap
)

var ErrUnknownGenerator = errors.New("unknown terrain generator")

func (g GeneratorType) String() string {
	switch g {
	case GeneratorFlat:
		return "flat"
	case GeneratorNoise:
		return "noise"
	case GeneratorHeightmap:
		return "heightmap"
	default:
		return "unknown"
	}
}

// ParseGeneratorType maps a config name to a GeneratorType.
func ParseGeneratorType(s string) (GeneratorType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat", "flatdirt":
		return GeneratorFlat, nil
	case "noise", "snoise":
		return GeneratorNoise, nil
	case "heightmap", "terrain":
		return GeneratorHeightmap, nil
	}
	return 0, errors.Wrapf(ErrUnknownGenerator, "%q", s)
}

// NewGenerator builds the generator of the given type.
func NewGenerator(t GeneratorType, seed int64) (TerrainGenerator, error) {
	switch t {
	case GeneratorFlat:
		return NewFlatGenerator(0), nil
	case GeneratorNoise:
		return NewNoiseGenerator(seed), nil
	case GeneratorHeightmap:
		return NewHeightmapGenerator(seed), nil
	}
	return nil, errors.Wrapf(ErrUnknownGenerator, "type %d", int(t))
}

// defaultBlock is full health, facing forward.
func defaultBlock(t BlockType) Block {
	return NewBlock(t, MaxHealth, Forward)
}

// FlatGenerator fills every block below Height (world Y) with dirt.
// Height <= 0 fills the whole map.
type FlatGenerator struct {
	Height int
}

func NewFlatGenerator(height int) *FlatGenerator {
	return &FlatGenerator{Height: height}
}

func (g *FlatGenerator) PopulateChunk(c *Chunk, info MapInfo) {
	for x := 0; x < c.Size; x++ {
		for y := 0; y < c.Size; y++ {
			if g.Height > 0 && c.WorldPosition.Y+y >= g.Height {
				continue
			}
			for z := 0; z < c.Size; z++ {
				c.SetBlock(x, y, z, defaultBlock(BlockTypeDirt))
			}
		}
	}
}

// NoiseGenerator assigns each voxel a type from 3D perlin noise, producing
// a cave-like mix of air, dirt and grass.
type NoiseGenerator struct {
	noise *perlin.Perlin
	scale float64
}

func NewNoiseGenerator(seed int64) *NoiseGenerator {
	return &NoiseGenerator{
		noise: perlin.NewPerlin(2, 2, 3, seed),
		scale: 1.0 / 16.0,
	}
}

func (g *NoiseGenerator) PopulateChunk(c *Chunk, info MapInfo) {
	for x := 0; x < c.Size; x++ {
		for y := 0; y < c.Size; y++ {
			for z := 0; z < c.Size; z++ {
				p := c.WorldPosition.Add(Coord{x, y, z})
				n := g.noise.Noise3D(float64(p.X)*g.scale, float64(p.Y)*g.scale, float64(p.Z)*g.scale)
				t := int((n + 1.0) * 2.99 / 2.0)
				t = min(max(t, 0), NumberOfNonEmptyBlockTypes)
				c.SetBlock(x, y, z, defaultBlock(BlockType(t)))
			}
		}
	}
}

// HeightmapGenerator layers octaves of 2D perlin noise into a normalized
// heightmap and stacks stone, dirt and a grass cap on it.
type HeightmapGenerator struct {
	noise       *perlin.Perlin
	octaves     int
	baseScale   float64
	smoothLevel float64
	smoothPower float64

	mu      sync.Mutex
	info    MapInfo
	heights []float64 // [x*depth+z], normalized 0..1
}

func NewHeightmapGenerator(seed int64) *HeightmapGenerator {
	return &HeightmapGenerator{
		noise:       perlin.NewPerlin(2, 2, 3, seed),
		octaves:     6,
		baseScale:   1.0 / 256.0,
		smoothLevel: 0.25,
		smoothPower: 0.8,
	}
}

// heightmap returns the normalized heightmap for the map, building it on first use.
func (g *HeightmapGenerator) heightmap(info MapInfo) []float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.heights != nil && g.info == info {
		return g.heights
	}

	bounds := info.BlockBounds()
	width, depth := bounds.X, bounds.Z
	h := make([]float64, width*depth)
	for oct := 0; oct < g.octaves; oct++ {
		scale := g.baseScale * math.Pow(2, float64(oct))
		amp := 1.0 / math.Pow(2, float64(oct))
		for x := 0; x < width; x++ {
			for z := 0; z < depth; z++ {
				h[x*depth+z] += g.noise.Noise2D(float64(x)*scale, float64(z)*scale) * amp
			}
		}
	}

	lo, hi := math.MaxFloat64, -math.MaxFloat64
	for _, v := range h {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	for i, v := range h {
		if hi > lo {
			v = (v - lo) / (hi - lo)
		} else {
			v = 0
		}
		factor := math.Pow(math.Abs(v-g.smoothLevel), g.smoothPower)
		h[i] = v*factor + g.smoothLevel*(1-factor)
	}

	g.info = info
	g.heights = h
	return h
}

func (g *HeightmapGenerator) PopulateChunk(c *Chunk, info MapInfo) {
	heights := g.heightmap(info)
	bounds := info.BlockBounds()
	for x := 0; x < c.Size; x++ {
		for z := 0; z < c.Size; z++ {
			p := c.WorldPosition.Add(Coord{x, 0, z})
			hn := heights[p.X*bounds.Z+p.Z]
			dirtDepth := 4 - hn*2
			height := hn * float64(bounds.Y)
			for y := 0; y < c.Size; y++ {
				wy := float64(c.WorldPosition.Y + y)
				t := BlockTypeEmpty
				switch {
				case wy < height-1-dirtDepth:
					t = BlockTypeStone
				case wy < height-1:
					t = BlockTypeDirt
				case wy < height:
					t = BlockTypeGrass
				}
				c.SetBlock(x, y, z, defaultBlock(t))
			}
		}
	}
}
