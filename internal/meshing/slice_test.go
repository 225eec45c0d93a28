package meshing

import (
	"testing"

	"voxmesh/internal/world"
)

func TestSliceProjection(t *testing.T) {
	p := world.Coord{X: 1, Y: 2, Z: 3}
	tests := []struct {
		dir  world.Direction
		i, j int
	}{
		{world.Left, 3, 2},
		{world.Right, 3, 2},
		{world.Forward, 1, 2},
		{world.Backward, 1, 2},
		{world.Up, 1, 3},
		{world.Down, 1, 3},
	}
	s := NewSlice(world.Up, 4)
	for _, tt := range tests {
		s.Reset(tt.dir)
		s.Add(p, world.BlockTypeDirt)
		q := s.Cell(tt.i, tt.j)
		if q.Origin != p || q.Width != 1 || q.Height != 1 {
			t.Errorf("%s: cell (%d,%d) = %+v", tt.dir, tt.i, tt.j, q)
		}
		if s.QuadCount() != 1 {
			t.Errorf("%s: %d quads after one Add", tt.dir, s.QuadCount())
		}
	}
}

// fill places material m on the Forward slice at every (i,j) listed.
func fill(s *Slice, m world.BlockType, cells ...[2]int) {
	for _, c := range cells {
		s.Add(world.Coord{X: c[0], Y: c[1]}, m)
	}
}

func TestSliceMergeVertical(t *testing.T) {
	s := NewSlice(world.Forward, 4)
	// Column 0: dirt run of 3. Column 1: dirt, stone, stone, gap.
	fill(s, world.BlockTypeDirt, [2]int{0, 0}, [2]int{0, 1}, [2]int{0, 2}, [2]int{1, 0})
	fill(s, world.BlockTypeStone, [2]int{1, 1}, [2]int{1, 2})
	s.MergeVertical()

	if got := s.QuadCount(); got != 3 {
		t.Fatalf("QuadCount = %d, want 3", got)
	}
	if q := s.Cell(0, 2); q.Height != 3 || q.Width != 1 || q.Origin != (world.Coord{X: 0, Y: 2}) {
		t.Errorf("top of dirt run = %+v", q)
	}
	if q := s.Cell(0, 0); q.Height != 0 {
		t.Errorf("merged cell not cleared: %+v", q)
	}
	if q := s.Cell(1, 2); q.Height != 2 || q.Material != world.BlockTypeStone {
		t.Errorf("stone run = %+v", q)
	}
	if q := s.Cell(1, 0); q.Height != 1 {
		t.Errorf("lone dirt = %+v", q)
	}
}

func TestSliceMergeHorizontal(t *testing.T) {
	s := NewSlice(world.Forward, 4)
	// Three columns of height 2, the third a different material, and a
	// fourth column of height 1.
	fill(s, world.BlockTypeDirt, [2]int{0, 0}, [2]int{0, 1}, [2]int{1, 0}, [2]int{1, 1})
	fill(s, world.BlockTypeGrass, [2]int{2, 0}, [2]int{2, 1})
	fill(s, world.BlockTypeGrass, [2]int{3, 1})
	s.MergeVertical()
	s.MergeHorizontal()

	if got := s.QuadCount(); got != 3 {
		t.Fatalf("QuadCount = %d, want 3", got)
	}
	if q := s.Cell(1, 1); q.Width != 2 || q.Height != 2 {
		t.Errorf("dirt block = %+v", q)
	}
	if q := s.Cell(2, 1); q.Width != 1 || q.Height != 2 {
		t.Errorf("grass column merged across material: %+v", q)
	}
	if q := s.Cell(3, 1); q.Width != 1 || q.Height != 1 {
		t.Errorf("short column merged across heights: %+v", q)
	}
}

func TestSliceResetClears(t *testing.T) {
	s := NewSlice(world.Up, 3)
	fill(s, world.BlockTypeDirt, [2]int{0, 0}, [2]int{2, 2})
	s.Reset(world.Down)
	if s.QuadCount() != 0 {
		t.Errorf("QuadCount after Reset = %d", s.QuadCount())
	}
	if s.Direction() != world.Down {
		t.Errorf("Direction after Reset = %s", s.Direction())
	}
}

func TestSliceEmit(t *testing.T) {
	s := NewSlice(world.Forward, 2)
	fill(s, world.BlockTypeDirt, [2]int{0, 0}, [2]int{0, 1}, [2]int{1, 0}, [2]int{1, 1})
	s.MergeVertical()
	s.MergeHorizontal()

	buf := newMeshBuffer(3)
	if err := s.Emit(buf); err != nil {
		t.Fatal(err)
	}
	if buf.quads != 1 || len(buf.vertices) != 4 || len(buf.subMeshes[0]) != 6 {
		t.Errorf("emitted %d quads, %d vertices, %d indices", buf.quads, len(buf.vertices), len(buf.subMeshes[0]))
	}

	buf.reset()
	if len(buf.vertices) != 0 || len(buf.uvs) != 0 || len(buf.subMeshes[0]) != 0 {
		t.Errorf("reset left data behind")
	}
}
