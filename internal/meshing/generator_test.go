package meshing

import (
	"context"
	"testing"

	"voxmesh/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStrategies = []Strategy{StrategyNaive, StrategyHalfGreedy, StrategyFullGreedy}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
	}{
		{"naive", StrategyNaive},
		{"Half-Greedy", StrategyHalfGreedy},
		{"half_greedy", StrategyHalfGreedy},
		{"greedy", StrategyFullGreedy},
		{" full-greedy ", StrategyFullGreedy},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	for _, s := range allStrategies {
		got, err := ParseStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseStrategy("octree")
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
	assert.Equal(t, "unknown", Strategy(42).String())
}

func TestNewMeshGeneratorRejectsConfig(t *testing.T) {
	m := newTestMap(t, world.Coord{X: 1, Y: 1, Z: 1}, 2)
	_, err := NewMeshGenerator(Strategy(7), m.Info, m.Chunks(), nil, 0, 3)
	assert.ErrorIs(t, err, ErrUnknownStrategy)
	_, err = NewMeshGenerator(StrategyNaive, m.Info, m.Chunks(), nil, 0, 0)
	assert.ErrorIs(t, err, ErrMaterialMismatch)

	gen, err := NewMeshGenerator(StrategyHalfGreedy, m.Info, m.Chunks(), nil, 5, 3)
	require.NoError(t, err)
	assert.Equal(t, StrategyHalfGreedy, gen.Strategy())
	assert.Equal(t, 5, gen.WorkerIndex())
}

func TestSingleVoxel(t *testing.T) {
	for _, s := range allStrategies {
		t.Run(s.String(), func(t *testing.T) {
			m := newTestMap(t, world.Coord{X: 1, Y: 1, Z: 1}, 4)
			m.SetBlockAt(1, 2, 3, block(world.BlockTypeDirt))

			meshes := meshMap(t, s, m)
			require.Len(t, meshes, 1)
			mesh := meshes[0]

			assert.Equal(t, 6, mesh.QuadCount())
			assert.Len(t, mesh.Vertices, 24)
			assert.Len(t, mesh.UVs, 24)
			require.Len(t, mesh.SubMeshes, world.NumberOfNonEmptyBlockTypes)
			assert.Len(t, mesh.SubMeshes[0], 36)
			assert.Empty(t, mesh.SubMeshes[1])
			assert.Empty(t, mesh.SubMeshes[2])

			for _, v := range mesh.Vertices {
				assert.True(t, v.X() >= 1 && v.X() <= 2, "x of %v", v)
				assert.True(t, v.Y() >= 2 && v.Y() <= 3, "y of %v", v)
				assert.True(t, v.Z() >= 3 && v.Z() <= 4, "z of %v", v)
			}
			assert.Equal(t, visibleFaces(m), coverage(t, meshes))
		})
	}
}

func TestFlatLayer(t *testing.T) {
	m := newTestMap(t, world.Coord{X: 1, Y: 1, Z: 1}, 4)
	for x := 0; x < 4; x++ {
		for z := 0; z < 4; z++ {
			m.SetBlockAt(x, 0, z, block(world.BlockTypeStone))
		}
	}

	want := map[Strategy]int{StrategyNaive: 48, StrategyHalfGreedy: 24, StrategyFullGreedy: 6}
	for _, s := range allStrategies {
		meshes := meshMap(t, s, m)
		assert.Equal(t, want[s], totalQuads(meshes), s.String())
		assert.Len(t, meshes[0].SubMeshes[2], want[s]*6, s.String())
	}

	// The merged top face covers the whole 4x4 layer.
	mesh := meshMap(t, StrategyFullGreedy, m)[0]
	var top []mgl32.Vec3
	for q := 0; q < mesh.QuadCount(); q++ {
		c := quadAt(mesh, 2, q)
		if directionOf(t, c) == world.Up {
			top = c[:]
		}
	}
	require.Len(t, top, 4)
	assert.ElementsMatch(t, []mgl32.Vec3{{0, 1, 0}, {4, 1, 0}, {0, 1, 4}, {4, 1, 4}}, top)
}

func TestNaiveFaceParity(t *testing.T) {
	m := randomMap(t, world.Coord{X: 2, Y: 2, Z: 2}, 4, 11, 0.45)
	got := coverage(t, meshMap(t, StrategyNaive, m))
	assert.Equal(t, visibleFaces(m), got)
}

func TestGreedyCoverageEquivalence(t *testing.T) {
	for _, seed := range []int64{1, 2, 3} {
		m := randomMap(t, world.Coord{X: 2, Y: 1, Z: 3}, 5, seed, 0.6)
		naive := coverage(t, meshMap(t, StrategyNaive, m))
		for _, s := range []Strategy{StrategyHalfGreedy, StrategyFullGreedy} {
			got := coverage(t, meshMap(t, s, m))
			assert.Equal(t, naive, got, "%s seed %d", s, seed)
			for f, n := range got {
				assert.Equal(t, 1, n, "%s covers %v %d times", s, f, n)
			}
		}
	}
}

func TestQuadCountOrdering(t *testing.T) {
	gen := world.NewHeightmapGenerator(5)
	m := newTestMap(t, world.Coord{X: 3, Y: 2, Z: 3}, 8)
	m.Populate(gen)

	naive := totalQuads(meshMap(t, StrategyNaive, m))
	half := totalQuads(meshMap(t, StrategyHalfGreedy, m))
	full := totalQuads(meshMap(t, StrategyFullGreedy, m))
	assert.LessOrEqual(t, full, half)
	assert.LessOrEqual(t, half, naive)
	assert.Less(t, full, naive)
}

func TestWindingPointsOutward(t *testing.T) {
	m := randomMap(t, world.Coord{X: 1, Y: 1, Z: 1}, 6, 9, 0.5)
	for _, s := range allStrategies {
		for _, mesh := range meshMap(t, s, m) {
			for sub := range mesh.SubMeshes {
				for q := 0; q < len(mesh.SubMeshes[sub])/6; q++ {
					c := quadAt(mesh, sub, q)
					first := c[1].Sub(c[0]).Cross(c[2].Sub(c[0])).Normalize()
					second := c[3].Sub(c[1]).Cross(c[2].Sub(c[1])).Normalize()
					assert.True(t, first.ApproxEqual(second), "%s: triangles of quad %v disagree", s, c)
				}
			}
		}
	}
	// Outward orientation is checked by coverage: a flipped normal maps a
	// face onto the neighboring voxel, which is empty.
	assert.Equal(t, visibleFaces(m), coverage(t, meshMap(t, StrategyFullGreedy, m)))
}

func TestUVsMatchQuadExtent(t *testing.T) {
	m := newTestMap(t, world.Coord{X: 1, Y: 1, Z: 1}, 4)
	// A 3 wide, 2 tall wall facing -Z.
	for x := 0; x < 3; x++ {
		for y := 0; y < 2; y++ {
			m.SetBlockAt(x, y, 0, block(world.BlockTypeGrass))
		}
	}
	mesh := meshMap(t, StrategyFullGreedy, m)[0]
	for q := 0; q < mesh.QuadCount(); q++ {
		c := quadAt(mesh, 1, q)
		if directionOf(t, c) != world.Backward {
			continue
		}
		base := mesh.SubMeshes[1][q*6]
		uvs := mesh.UVs[base : base+4]
		assert.Equal(t, []mgl32.Vec2{{3, 0}, {0, 0}, {3, -2}, {0, -2}}, uvs)
	}

	// Left and Right flip the sign of the i extent.
	for q := 0; q < mesh.QuadCount(); q++ {
		c := quadAt(mesh, 1, q)
		if directionOf(t, c) != world.Right {
			continue
		}
		base := mesh.SubMeshes[1][q*6]
		assert.Equal(t, mgl32.Vec2{-1, 0}, mesh.UVs[base])
		assert.Equal(t, mgl32.Vec2{-1, -2}, mesh.UVs[base+2])
	}
}

func TestFacesAcrossChunkSeams(t *testing.T) {
	// Two touching voxels on either side of the x seam hide their shared faces.
	m := newTestMap(t, world.Coord{X: 2, Y: 1, Z: 1}, 2)
	m.SetBlockAt(1, 0, 0, block(world.BlockTypeDirt))
	m.SetBlockAt(2, 0, 0, block(world.BlockTypeDirt))

	for _, s := range allStrategies {
		meshes := meshMap(t, s, m)
		assert.Equal(t, 10, totalQuads(meshes), s.String())
		cov := coverage(t, meshes)
		assert.NotContains(t, cov, unitFace{voxel: world.Coord{X: 1}, dir: world.Right, material: world.BlockTypeDirt})
		assert.NotContains(t, cov, unitFace{voxel: world.Coord{X: 2}, dir: world.Left, material: world.BlockTypeDirt})
	}
}

func TestMaterialOutOfRange(t *testing.T) {
	for _, s := range allStrategies {
		m := newTestMap(t, world.Coord{X: 1, Y: 1, Z: 1}, 2)
		m.SetBlockAt(0, 0, 0, block(world.BlockType(world.NumberOfNonEmptyBlockTypes+1)))
		cache, err := BuildBoundaryCache(m)
		require.NoError(t, err)
		gen, err := NewMeshGenerator(s, m.Info, m.Chunks(), cache, 0, world.NumberOfNonEmptyBlockTypes)
		require.NoError(t, err)

		_, err = gen.Generate(context.Background())
		assert.ErrorIs(t, err, ErrMaterialOutOfRange, s.String())
	}
}

func TestGenerateStopsOnCancel(t *testing.T) {
	m := randomMap(t, world.Coord{X: 2, Y: 1, Z: 1}, 4, 3, 0.5)
	cache, err := BuildBoundaryCache(m)
	require.NoError(t, err)
	gen, err := NewMeshGenerator(StrategyFullGreedy, m.Info, m.Chunks(), cache, 0, 3)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	meshes, err := gen.Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, meshes)
}

func TestGenerateIsRepeatable(t *testing.T) {
	m := randomMap(t, world.Coord{X: 2, Y: 2, Z: 1}, 4, 21, 0.5)
	cache, err := BuildBoundaryCache(m)
	require.NoError(t, err)
	gen, err := NewMeshGenerator(StrategyHalfGreedy, m.Info, m.Chunks(), cache, 0, 3)
	require.NoError(t, err)

	first, err := gen.Generate(context.Background())
	require.NoError(t, err)
	second, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Returned meshes do not alias the scratch buffers.
	require.NotEmpty(t, first[0].Vertices)
	first[0].Vertices[0] = mgl32.Vec3{-1, -1, -1}
	assert.NotEqual(t, first[0].Vertices[0], second[0].Vertices[0])
}

func TestChunkMeshValidate(t *testing.T) {
	m := ChunkMesh{
		Vertices:  make([]mgl32.Vec3, 4),
		UVs:       make([]mgl32.Vec2, 4),
		SubMeshes: [][]uint32{{0, 1, 2, 1, 3, 2}},
	}
	require.NoError(t, m.Validate())
	assert.Equal(t, 1, m.QuadCount())
	assert.Equal(t, 2, m.TriangleCount())

	m.SubMeshes[0][4] = 4
	assert.Error(t, m.Validate())

	m.SubMeshes[0][4] = 3
	m.UVs = m.UVs[:3]
	assert.Error(t, m.Validate())
}

func BenchmarkGenerate(b *testing.B) {
	m := newTestMap(b, world.Coord{X: 4, Y: 2, Z: 4}, 16)
	m.Populate(world.NewHeightmapGenerator(1))
	cache, err := BuildBoundaryCache(m)
	require.NoError(b, err)

	for _, s := range allStrategies {
		b.Run(s.String(), func(b *testing.B) {
			gen, err := NewMeshGenerator(s, m.Info, m.Chunks(), cache, 0, 3)
			require.NoError(b, err)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := gen.Generate(context.Background()); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
