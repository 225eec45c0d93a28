package meshing

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"voxmesh/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func block(t world.BlockType) world.Block {
	return world.NewBlock(t, world.MaxHealth, world.Forward)
}

func newTestMap(t testing.TB, size world.Coord, chunkSize int) *world.Map {
	t.Helper()
	m, err := world.NewMap(world.MapInfo{Size: size, ChunkSize: chunkSize})
	require.NoError(t, err)
	return m
}

// randomMap fills a map with a deterministic mix of air and every material.
func randomMap(t testing.TB, size world.Coord, chunkSize int, seed int64, density float64) *world.Map {
	t.Helper()
	m := newTestMap(t, size, chunkSize)
	rng := rand.New(rand.NewSource(seed))
	b := m.Info.BlockBounds()
	for x := 0; x < b.X; x++ {
		for y := 0; y < b.Y; y++ {
			for z := 0; z < b.Z; z++ {
				if rng.Float64() < density {
					m.SetBlockAt(x, y, z, block(world.BlockType(1+rng.Intn(world.NumberOfNonEmptyBlockTypes))))
				}
			}
		}
	}
	return m
}

// meshMap runs one generator of the given strategy over every chunk of m.
func meshMap(t testing.TB, s Strategy, m *world.Map) []ChunkMesh {
	t.Helper()
	cache, err := BuildBoundaryCache(m)
	require.NoError(t, err)
	gen, err := NewMeshGenerator(s, m.Info, m.Chunks(), cache, 0, world.NumberOfNonEmptyBlockTypes)
	require.NoError(t, err)
	meshes, err := gen.Generate(context.Background())
	require.NoError(t, err)
	for _, mesh := range meshes {
		require.NoError(t, mesh.Validate())
	}
	return meshes
}

func totalQuads(meshes []ChunkMesh) int {
	n := 0
	for _, m := range meshes {
		n += m.QuadCount()
	}
	return n
}

// unitFace is one voxel face, in absolute block coordinates.
type unitFace struct {
	voxel    world.Coord
	dir      world.Direction
	material world.BlockType
}

// quadAt returns the four corners of the q-th quad of a sub-mesh.
func quadAt(m ChunkMesh, sub, q int) [4]mgl32.Vec3 {
	idx := m.SubMeshes[sub][q*6 : q*6+6]
	// Indices are v-4, v-3, v-2, v-3, v-1, v-2.
	return [4]mgl32.Vec3{m.Vertices[idx[0]], m.Vertices[idx[1]], m.Vertices[idx[2]], m.Vertices[idx[4]]}
}

// directionOf maps the normal given by the first triangle's winding to a Direction.
func directionOf(t testing.TB, c [4]mgl32.Vec3) world.Direction {
	t.Helper()
	n := c[1].Sub(c[0]).Cross(c[2].Sub(c[0])).Normalize()
	for _, d := range world.AllDirections {
		if n.ApproxEqual(d.Normal()) {
			return d
		}
	}
	t.Fatalf("quad %v has normal %v off the axes", c, n)
	return 0
}

func roundCoord(v mgl32.Vec3) world.Coord {
	return world.Coord{
		X: int(math.Round(float64(v[0]))),
		Y: int(math.Round(float64(v[1]))),
		Z: int(math.Round(float64(v[2]))),
	}
}

// coverage expands every emitted quad into the unit faces it covers, counting
// how often each is covered.
func coverage(t testing.TB, meshes []ChunkMesh) map[unitFace]int {
	t.Helper()
	out := make(map[unitFace]int)
	for _, m := range meshes {
		for sub := range m.SubMeshes {
			for q := 0; q < len(m.SubMeshes[sub])/6; q++ {
				c := quadAt(m, sub, q)
				dir := directionOf(t, c)
				lo, hi := roundCoord(c[0]), roundCoord(c[0])
				for _, v := range c[1:] {
					p := roundCoord(v)
					lo = world.Coord{X: min(lo.X, p.X), Y: min(lo.Y, p.Y), Z: min(lo.Z, p.Z)}
					hi = world.Coord{X: max(hi.X, p.X), Y: max(hi.Y, p.Y), Z: max(hi.Z, p.Z)}
				}
				off := dir.Offset()
				// A face on the positive side of a voxel sits at its far plane.
				back := world.Coord{X: max(off.X, 0), Y: max(off.Y, 0), Z: max(off.Z, 0)}
				span := func(lo, hi, o int) (int, int) {
					if o != 0 {
						return lo, lo + 1
					}
					return lo, hi
				}
				x0, x1 := span(lo.X, hi.X, off.X)
				y0, y1 := span(lo.Y, hi.Y, off.Y)
				z0, z1 := span(lo.Z, hi.Z, off.Z)
				for x := x0; x < x1; x++ {
					for y := y0; y < y1; y++ {
						for z := z0; z < z1; z++ {
							local := world.Coord{X: x - back.X, Y: y - back.Y, Z: z - back.Z}
							f := unitFace{voxel: m.WorldPosition.Add(local), dir: dir, material: world.BlockType(sub + 1)}
							out[f]++
						}
					}
				}
			}
		}
	}
	return out
}

// visibleFaces lists every exposed voxel face by direct map queries.
func visibleFaces(m *world.Map) map[unitFace]int {
	out := make(map[unitFace]int)
	b := m.Info.BlockBounds()
	for x := 0; x < b.X; x++ {
		for y := 0; y < b.Y; y++ {
			for z := 0; z < b.Z; z++ {
				t := m.BlockAt(x, y, z).Type
				if t == world.BlockTypeEmpty {
					continue
				}
				p := world.Coord{X: x, Y: y, Z: z}
				for _, d := range world.AllDirections {
					n := p.Add(d.Offset())
					if m.BlockAt(n.X, n.Y, n.Z).Type == world.BlockTypeEmpty {
						out[unitFace{voxel: p, dir: d, material: t}]++
					}
				}
			}
		}
	}
	return out
}
