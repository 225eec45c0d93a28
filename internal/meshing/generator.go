package meshing

import (
	"context"
	"strings"

	"voxmesh/internal/world"

	"github.com/pkg/errors"
)

// Strategy selects how faces are turned into quads.
type Strategy int

const (
	// StrategyNaive emits one quad per visible voxel face.
	StrategyNaive Strategy = iota
	// StrategyHalfGreedy merges faces along one slice axis.
	StrategyHalfGreedy
	// StrategyFullGreedy merges along both slice axes.
	StrategyFullGreedy
)

var strategyNames = map[Strategy]string{
	StrategyNaive:      "naive",
	StrategyHalfGreedy: "half-greedy",
	StrategyFullGreedy: "full-greedy",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Strategy) Valid() bool {
	_, ok := strategyNames[s]
	return ok
}

// ParseStrategy accepts the names returned by String, case-insensitively,
// with or without the dash.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-") {
	case "naive":
		return StrategyNaive, nil
	case "half-greedy", "halfgreedy", "half":
		return StrategyHalfGreedy, nil
	case "full-greedy", "fullgreedy", "greedy", "full":
		return StrategyFullGreedy, nil
	}
	return 0, errors.Wrapf(ErrUnknownStrategy, "%q", s)
}

// MeshGenerator meshes a fixed sublist of chunks. Generate returns one mesh
// per chunk, in sublist order.
type MeshGenerator interface {
	Generate(ctx context.Context) ([]ChunkMesh, error)
	Strategy() Strategy
	WorkerIndex() int
}

// NewMeshGenerator builds a generator of the given strategy over chunks.
// materials is the number of sub-meshes each ChunkMesh carries.
func NewMeshGenerator(strategy Strategy, info world.MapInfo, chunks []*world.Chunk, cache *BoundaryCache, workerIndex, materials int) (MeshGenerator, error) {
	if materials < 1 {
		return nil, errors.Wrapf(ErrMaterialMismatch, "%d materials", materials)
	}
	base := generatorBase{
		strategy:  strategy,
		info:      info,
		chunks:    chunks,
		occ:       newOccupancy(info, cache),
		worker:    workerIndex,
		materials: materials,
		buf:       newMeshBuffer(materials),
	}
	switch strategy {
	case StrategyNaive:
		return &naiveGenerator{generatorBase: base}, nil
	case StrategyHalfGreedy, StrategyFullGreedy:
		return newGreedyGenerator(base, strategy == StrategyFullGreedy), nil
	}
	return nil, errors.Wrapf(ErrUnknownStrategy, "strategy %d", int(strategy))
}

// generatorBase holds what every strategy shares: the chunk sublist, the
// emptiness query and the scratch buffer.
type generatorBase struct {
	strategy  Strategy
	info      world.MapInfo
	chunks    []*world.Chunk
	occ       occupancy
	worker    int
	materials int
	buf       *meshBuffer
}

func (g *generatorBase) Strategy() Strategy { return g.strategy }
func (g *generatorBase) WorkerIndex() int   { return g.worker }

// run meshes every chunk with meshChunk, checking ctx between chunks.
func (g *generatorBase) run(ctx context.Context, meshChunk func(c *world.Chunk) error) ([]ChunkMesh, error) {
	out := make([]ChunkMesh, 0, len(g.chunks))
	for _, c := range g.chunks {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if c.Size != g.info.ChunkSize {
			return out, errors.Errorf("chunk %v has size %d, map uses %d", c.Index, c.Size, g.info.ChunkSize)
		}
		g.buf.reset()
		if err := meshChunk(c); err != nil {
			return out, errors.Wrapf(err, "chunk %v", c.Index)
		}
		out = append(out, g.buf.snapshot(c.WorldPosition))
	}
	return out, nil
}

// solid returns the type of a non-empty voxel, checking it has a material slot.
func (g *generatorBase) solid(c *world.Chunk, x, y, z int) (world.BlockType, bool, error) {
	t := c.Type(x, y, z)
	if t == world.BlockTypeEmpty {
		return t, false, nil
	}
	if int(t) > g.materials {
		return t, false, errors.Wrapf(ErrMaterialOutOfRange, "block type %d at %d,%d,%d with %d materials", t, x, y, z, g.materials)
	}
	return t, true, nil
}
