package meshing

import (
	"voxmesh/internal/world"

	"github.com/pkg/errors"
)

// occupancy answers emptiness queries for voxels of one chunk, including
// neighbors one step outside it.
type occupancy struct {
	bounds world.Coord
	cache  *BoundaryCache
}

func newOccupancy(info world.MapInfo, cache *BoundaryCache) occupancy {
	return occupancy{bounds: info.BlockBounds(), cache: cache}
}

// isEmpty reports whether the voxel at chunk-local (x,y,z) is air. Local
// coordinates outside the chunk resolve through the boundary cache, and
// anything outside the map counts as empty.
func (o occupancy) isEmpty(c *world.Chunk, x, y, z int) (bool, error) {
	if c.Contains(x, y, z) {
		return c.IsEmpty(x, y, z), nil
	}
	p := c.WorldPosition.Add(world.Coord{X: x, Y: y, Z: z})
	if !p.Within(o.bounds) {
		return true, nil
	}
	if o.cache == nil {
		return false, errors.Wrapf(ErrBoundaryCacheMiss, "no cache for block %v", p)
	}
	empty, ok := o.cache.Lookup(p)
	if !ok {
		return false, errors.Wrapf(ErrBoundaryCacheMiss, "block %v", p)
	}
	return empty, nil
}
