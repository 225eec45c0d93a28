package meshing

import (
	"context"

	"voxmesh/internal/world"
)

// naiveGenerator emits a unit quad for every voxel face that borders air.
type naiveGenerator struct {
	generatorBase
}

func (g *naiveGenerator) Generate(ctx context.Context) ([]ChunkMesh, error) {
	return g.run(ctx, g.meshChunk)
}

func (g *naiveGenerator) meshChunk(c *world.Chunk) error {
	for x := 0; x < c.Size; x++ {
		for y := 0; y < c.Size; y++ {
			for z := 0; z < c.Size; z++ {
				t, ok, err := g.solid(c, x, y, z)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				for _, dir := range world.AllDirections {
					n := dir.Offset()
					empty, err := g.occ.isEmpty(c, x+n.X, y+n.Y, z+n.Z)
					if err != nil {
						return err
					}
					if !empty {
						continue
					}
					if err := g.buf.addQuad(dir, x, y, z, 1, 1, t); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
