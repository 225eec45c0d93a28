package meshing

import (
	"voxmesh/internal/world"

	"github.com/pkg/errors"
)

const (
	boundaryKeyBits = 21
	boundaryKeyMax  = 1 << boundaryKeyBits
	boundaryKeyMask = boundaryKeyMax - 1
)

// boundaryKey packs a non-negative block coordinate into 63 bits.
func boundaryKey(p world.Coord) uint64 {
	return uint64(p.X&boundaryKeyMask)<<(2*boundaryKeyBits) |
		uint64(p.Y&boundaryKeyMask)<<boundaryKeyBits |
		uint64(p.Z&boundaryKeyMask)
}

// BoundaryCache records, for every block touching an internal chunk seam, whether it is empty.
// It is built once before a pass and only read afterwards, so workers share it without locking.
type BoundaryCache struct {
	empty map[uint64]bool
}

// BuildBoundaryCache scans the X, Y and Z seams of the map. Blocks on the outer
// map boundary are not recorded; callers treat anything outside the map as empty.
func BuildBoundaryCache(m *world.Map) (*BoundaryCache, error) {
	info := m.Info
	if err := info.Validate(); err != nil {
		return nil, err
	}
	bounds := info.BlockBounds()
	if bounds.X > boundaryKeyMax || bounds.Y > boundaryKeyMax || bounds.Z > boundaryKeyMax {
		return nil, errors.Wrapf(ErrMapTooLarge, "block bounds %v", bounds)
	}

	cs := info.ChunkSize
	size := info.Size
	// Each internal seam contributes two planes of cs*cs blocks.
	seams := (size.X-1)*size.Y*size.Z + size.X*(size.Y-1)*size.Z + size.X*size.Y*(size.Z-1)
	bc := &BoundaryCache{empty: make(map[uint64]bool, 2*seams*cs*cs)}

	chunk := func(i, j, k int) (*world.Chunk, error) {
		c := m.Chunk(i, j, k)
		if c == nil {
			return nil, errors.Wrapf(ErrIncompleteMap, "chunk %d,%d,%d", i, j, k)
		}
		return c, nil
	}

	// axis 0 = X, 1 = Y, 2 = Z. u and v are the two in-plane axes.
	for axis := 0; axis < 3; axis++ {
		n := axisOf(size, axis)
		for ca := 1; ca < n; ca++ {
			for cu := 0; cu < axisOf(size, (axis+1)%3); cu++ {
				for cv := 0; cv < axisOf(size, (axis+2)%3); cv++ {
					lowIdx := onAxis(axis, ca-1, cu, cv)
					highIdx := onAxis(axis, ca, cu, cv)
					low, err := chunk(lowIdx.X, lowIdx.Y, lowIdx.Z)
					if err != nil {
						return nil, err
					}
					high, err := chunk(highIdx.X, highIdx.Y, highIdx.Z)
					if err != nil {
						return nil, err
					}
					for u := 0; u < cs; u++ {
						for v := 0; v < cs; v++ {
							lp := onAxis(axis, cs-1, u, v)
							hp := onAxis(axis, 0, u, v)
							bc.record(low.WorldPosition.Add(lp), low.Type(lp.X, lp.Y, lp.Z) == world.BlockTypeEmpty)
							bc.record(high.WorldPosition.Add(hp), high.Type(hp.X, hp.Y, hp.Z) == world.BlockTypeEmpty)
						}
					}
				}
			}
		}
	}
	return bc, nil
}

// record stores a value unless the coordinate is already present.
func (bc *BoundaryCache) record(p world.Coord, empty bool) {
	k := boundaryKey(p)
	if _, ok := bc.empty[k]; ok {
		return
	}
	bc.empty[k] = empty
}

// Lookup returns the emptiness of a seam block and whether it was recorded.
func (bc *BoundaryCache) Lookup(p world.Coord) (empty bool, ok bool) {
	empty, ok = bc.empty[boundaryKey(p)]
	return empty, ok
}

// Len returns the number of recorded blocks.
func (bc *BoundaryCache) Len() int {
	return len(bc.empty)
}

// axisOf returns the component of c along axis (0=X, 1=Y, 2=Z).
func axisOf(c world.Coord, axis int) int {
	switch axis {
	case 0:
		return c.X
	case 1:
		return c.Y
	default:
		return c.Z
	}
}

// onAxis builds a coordinate with a on the given axis, u on the next axis and v on the one after.
func onAxis(axis, a, u, v int) world.Coord {
	switch axis {
	case 0:
		return world.Coord{X: a, Y: u, Z: v}
	case 1:
		return world.Coord{X: v, Y: a, Z: u}
	default:
		return world.Coord{X: u, Y: v, Z: a}
	}
}
