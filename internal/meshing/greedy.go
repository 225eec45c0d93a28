package meshing

import (
	"context"

	"voxmesh/internal/world"
)

// sliceAxis describes one sweep: the layer axis and the face pair it produces.
type sliceAxis struct {
	pos, neg world.Direction
	// voxel maps (layer, u, v) to chunk-local coordinates.
	voxel func(layer, u, v int) world.Coord
}

// Sweeps run along X, then Z, then Y.
var sliceAxes = [3]sliceAxis{
	{pos: world.Right, neg: world.Left, voxel: func(l, u, v int) world.Coord { return world.Coord{X: l, Y: v, Z: u} }},
	{pos: world.Forward, neg: world.Backward, voxel: func(l, u, v int) world.Coord { return world.Coord{X: u, Y: v, Z: l} }},
	{pos: world.Up, neg: world.Down, voxel: func(l, u, v int) world.Coord { return world.Coord{X: u, Y: l, Z: v} }},
}

// greedyGenerator sweeps each chunk layer by layer, collects visible faces
// into slices and merges them before emitting. With full set it also merges
// across columns.
type greedyGenerator struct {
	generatorBase
	full     bool
	pos, neg *Slice
}

func newGreedyGenerator(base generatorBase, full bool) *greedyGenerator {
	size := base.info.ChunkSize
	return &greedyGenerator{
		generatorBase: base,
		full:          full,
		pos:           NewSlice(world.Right, size),
		neg:           NewSlice(world.Left, size),
	}
}

func (g *greedyGenerator) Generate(ctx context.Context) ([]ChunkMesh, error) {
	return g.run(ctx, g.meshChunk)
}

func (g *greedyGenerator) meshChunk(c *world.Chunk) error {
	for _, axis := range sliceAxes {
		po, no := axis.pos.Offset(), axis.neg.Offset()
		for layer := 0; layer < c.Size; layer++ {
			g.pos.Reset(axis.pos)
			g.neg.Reset(axis.neg)
			for u := 0; u < c.Size; u++ {
				for v := 0; v < c.Size; v++ {
					p := axis.voxel(layer, u, v)
					t, ok, err := g.solid(c, p.X, p.Y, p.Z)
					if err != nil {
						return err
					}
					if !ok {
						continue
					}
					empty, err := g.occ.isEmpty(c, p.X+po.X, p.Y+po.Y, p.Z+po.Z)
					if err != nil {
						return err
					}
					if empty {
						g.pos.Add(p, t)
					}
					empty, err = g.occ.isEmpty(c, p.X+no.X, p.Y+no.Y, p.Z+no.Z)
					if err != nil {
						return err
					}
					if empty {
						g.neg.Add(p, t)
					}
				}
			}
			for _, s := range [2]*Slice{g.pos, g.neg} {
				s.MergeVertical()
				if g.full {
					s.MergeHorizontal()
				}
				if err := s.Emit(g.buf); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
