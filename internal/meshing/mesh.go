package meshing

import (
	"voxmesh/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ChunkMesh is the geometry bundle of one chunk. Vertices are chunk-local;
// consumers translate by WorldPosition. SubMeshes[i] indexes the triangles of
// block type i+1, six indices per quad.
type ChunkMesh struct {
	WorldPosition world.Coord
	Vertices      []mgl32.Vec3
	SubMeshes     [][]uint32
	UVs           []mgl32.Vec2
}

// QuadCount returns the number of quads across all sub-meshes.
func (m ChunkMesh) QuadCount() int {
	return m.TriangleCount() / 2
}

func (m ChunkMesh) TriangleCount() int {
	n := 0
	for _, sm := range m.SubMeshes {
		n += len(sm)
	}
	return n / 3
}

// IsEmpty reports whether the mesh has no faces.
func (m ChunkMesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Validate checks that UVs match vertices and that every index is in range.
func (m ChunkMesh) Validate() error {
	if len(m.UVs) != len(m.Vertices) {
		return errors.Errorf("mesh %v: %d uvs for %d vertices", m.WorldPosition, len(m.UVs), len(m.Vertices))
	}
	for s, sm := range m.SubMeshes {
		if len(sm)%6 != 0 {
			return errors.Errorf("mesh %v: sub-mesh %d has %d indices", m.WorldPosition, s, len(sm))
		}
		for _, idx := range sm {
			if int(idx) >= len(m.Vertices) {
				return errors.Errorf("mesh %v: sub-mesh %d index %d out of range", m.WorldPosition, s, idx)
			}
		}
	}
	return nil
}

// quadCorners lists, per direction, the four corners of a quad anchored at the
// far corner (x+1,y+1,z+1) of its surviving cell. Each corner is the anchor
// plus a*w along the slice's i axis and b*h along its j axis, with the face
// plane offset already folded into base.
type quadCorners struct {
	base   world.Coord
	iAxis  world.Coord
	jAxis  world.Coord
	coeffs [4][2]int
	iSign  float32
}

var cornerTable = [6]quadCorners{
	world.Backward: {
		base: world.Coord{X: 1, Y: 1, Z: 0}, iAxis: world.Coord{X: 1}, jAxis: world.Coord{Y: 1},
		coeffs: [4][2]int{{-1, 0}, {0, 0}, {-1, -1}, {0, -1}}, iSign: 1,
	},
	world.Forward: {
		base: world.Coord{X: 1, Y: 1, Z: 1}, iAxis: world.Coord{X: 1}, jAxis: world.Coord{Y: 1},
		coeffs: [4][2]int{{0, 0}, {-1, 0}, {0, -1}, {-1, -1}}, iSign: 1,
	},
	world.Right: {
		base: world.Coord{X: 1, Y: 1, Z: 1}, iAxis: world.Coord{Z: 1}, jAxis: world.Coord{Y: 1},
		coeffs: [4][2]int{{-1, 0}, {0, 0}, {-1, -1}, {0, -1}}, iSign: -1,
	},
	world.Left: {
		base: world.Coord{X: 0, Y: 1, Z: 1}, iAxis: world.Coord{Z: 1}, jAxis: world.Coord{Y: 1},
		coeffs: [4][2]int{{0, 0}, {-1, 0}, {0, -1}, {-1, -1}}, iSign: -1,
	},
	world.Down: {
		base: world.Coord{X: 1, Y: 0, Z: 1}, iAxis: world.Coord{X: 1}, jAxis: world.Coord{Z: 1},
		coeffs: [4][2]int{{0, 0}, {-1, 0}, {0, -1}, {-1, -1}}, iSign: 1,
	},
	world.Up: {
		base: world.Coord{X: 1, Y: 1, Z: 1}, iAxis: world.Coord{X: 1}, jAxis: world.Coord{Z: 1},
		coeffs: [4][2]int{{0, -1}, {-1, -1}, {0, 0}, {-1, 0}}, iSign: 1,
	},
}

// meshBuffer is the scratch geometry of the chunk being meshed. It is owned by
// one generator and reset between chunks.
type meshBuffer struct {
	vertices  []mgl32.Vec3
	subMeshes [][]uint32
	uvs       []mgl32.Vec2
	quads     int
}

func newMeshBuffer(materials int) *meshBuffer {
	return &meshBuffer{subMeshes: make([][]uint32, materials)}
}

func (b *meshBuffer) reset() {
	b.vertices = b.vertices[:0]
	for i := range b.subMeshes {
		b.subMeshes[i] = b.subMeshes[i][:0]
	}
	b.uvs = b.uvs[:0]
	b.quads = 0
}

// addQuad appends one face quad for block t. (x,y,z) is the chunk-local
// position of the surviving cell, w and h the extent along the slice axes.
func (b *meshBuffer) addQuad(dir world.Direction, x, y, z, w, h int, t world.BlockType) error {
	sub := int(t) - 1
	if sub < 0 || sub >= len(b.subMeshes) {
		return errors.Wrapf(ErrMaterialOutOfRange, "block type %d with %d materials", t, len(b.subMeshes))
	}
	qc := &cornerTable[dir]
	anchor := world.Coord{X: x, Y: y, Z: z}.Add(qc.base)
	for _, c := range qc.coeffs {
		p := anchor.Add(qc.iAxis.Scale(c[0] * w)).Add(qc.jAxis.Scale(c[1] * h))
		b.vertices = append(b.vertices, p.Vec3())
	}

	v := uint32(len(b.vertices))
	b.subMeshes[sub] = append(b.subMeshes[sub], v-4, v-3, v-2, v-3, v-1, v-2)

	iScale := qc.iSign * float32(w)
	jScale := -float32(h)
	b.uvs = append(b.uvs,
		mgl32.Vec2{iScale, 0},
		mgl32.Vec2{0, 0},
		mgl32.Vec2{iScale, jScale},
		mgl32.Vec2{0, jScale},
	)
	b.quads++
	return nil
}

// snapshot copies the buffer into a ChunkMesh that shares no memory with it.
func (b *meshBuffer) snapshot(worldPos world.Coord) ChunkMesh {
	m := ChunkMesh{
		WorldPosition: worldPos,
		Vertices:      append([]mgl32.Vec3(nil), b.vertices...),
		SubMeshes:     make([][]uint32, len(b.subMeshes)),
		UVs:           append([]mgl32.Vec2(nil), b.uvs...),
	}
	for i, sm := range b.subMeshes {
		m.SubMeshes[i] = append([]uint32{}, sm...)
	}
	return m
}
