package meshing

import (
	"voxmesh/internal/world"
)

// Quad is one slice cell. Origin is the chunk-local voxel of the cell, Width
// and Height the merged extent along the slice's i and j axes. A zero extent
// means the cell holds no face.
type Quad struct {
	Origin   world.Coord
	Width    int
	Height   int
	Material world.BlockType
}

func (q Quad) live() bool {
	return q.Width != 0 && q.Height != 0 && q.Material != world.BlockTypeEmpty
}

// Slice accumulates the visible faces of one direction in one layer of a
// chunk, merges them and emits the result. A Slice is reused across layers.
type Slice struct {
	direction world.Direction
	size      int
	cells     []Quad // [i*size+j]
}

func NewSlice(direction world.Direction, size int) *Slice {
	return &Slice{
		direction: direction,
		size:      size,
		cells:     make([]Quad, size*size),
	}
}

// Reset clears every cell and retargets the slice.
func (s *Slice) Reset(direction world.Direction) {
	s.direction = direction
	clear(s.cells)
}

func (s *Slice) Direction() world.Direction {
	return s.direction
}

// project maps a chunk-local position onto the slice plane.
func (s *Slice) project(p world.Coord) (i, j int) {
	switch s.direction {
	case world.Left, world.Right:
		return p.Z, p.Y
	case world.Forward, world.Backward:
		return p.X, p.Y
	default:
		return p.X, p.Z
	}
}

// Add places a unit face for the voxel at pos.
func (s *Slice) Add(pos world.Coord, material world.BlockType) {
	i, j := s.project(pos)
	s.cells[i*s.size+j] = Quad{Origin: pos, Width: 1, Height: 1, Material: material}
}

// Cell returns the cell at slice coordinates (i,j).
func (s *Slice) Cell(i, j int) Quad {
	return s.cells[i*s.size+j]
}

// MergeVertical joins runs of equal material along j. The topmost cell of a
// run survives with the summed height.
func (s *Slice) MergeVertical() {
	for i := 0; i < s.size; i++ {
		col := s.cells[i*s.size : (i+1)*s.size]
		for j := 1; j < s.size; j++ {
			cur, prev := &col[j], &col[j-1]
			if !cur.live() || !prev.live() || cur.Material != prev.Material {
				continue
			}
			cur.Height += prev.Height
			prev.Width, prev.Height = 0, 0
		}
	}
}

// MergeHorizontal joins neighboring columns whose cells have the same height
// and material. It expects MergeVertical to have run.
func (s *Slice) MergeHorizontal() {
	for i := 1; i < s.size; i++ {
		for j := 0; j < s.size; j++ {
			cur := &s.cells[i*s.size+j]
			prev := &s.cells[(i-1)*s.size+j]
			if !cur.live() || !prev.live() {
				continue
			}
			if cur.Height != prev.Height || cur.Material != prev.Material {
				continue
			}
			cur.Width += prev.Width
			prev.Width, prev.Height = 0, 0
		}
	}
}

// QuadCount returns the number of live cells.
func (s *Slice) QuadCount() int {
	n := 0
	for _, q := range s.cells {
		if q.live() {
			n++
		}
	}
	return n
}

// Emit writes one quad per live cell into buf.
func (s *Slice) Emit(buf *meshBuffer) error {
	for _, q := range s.cells {
		if !q.live() {
			continue
		}
		if err := buf.addQuad(s.direction, q.Origin.X, q.Origin.Y, q.Origin.Z, q.Width, q.Height, q.Material); err != nil {
			return err
		}
	}
	return nil
}
