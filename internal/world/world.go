package world

import (
	"github.com/pkg/errors"
)

// MapInfo describes a map: Size in chunks per axis and the shared chunk edge length.
type MapInfo struct {
	Size      Coord
	ChunkSize int
}

// ErrInvalidMapInfo is returned for non-positive map or chunk sizes.
var ErrInvalidMapInfo = errors.New("invalid map info")

// Validate checks that every dimension is at least one.
func (mi MapInfo) Validate() error {
	if mi.Size.X < 1 || mi.Size.Y < 1 || mi.Size.Z < 1 {
		return errors.Wrapf(ErrInvalidMapInfo, "map size %v", mi.Size)
	}
	if mi.ChunkSize < 1 {
		return errors.Wrapf(ErrInvalidMapInfo, "chunk size %d", mi.ChunkSize)
	}
	return nil
}

// BlockBounds returns the map extent in blocks.
func (mi MapInfo) BlockBounds() Coord {
	return mi.Size.Scale(mi.ChunkSize)
}

// ChunkCount returns the number of chunks in the map.
func (mi MapInfo) ChunkCount() int {
	return mi.Size.X * mi.Size.Y * mi.Size.Z
}

// Map is a fixed 3D array of chunks.
type Map struct {
	Info   MapInfo
	chunks []*Chunk
}

// NewMap allocates every chunk of the map, all empty.
func NewMap(info MapInfo) (*Map, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	m := &Map{
		Info:   info,
		chunks: make([]*Chunk, info.ChunkCount()),
	}
	for i := 0; i < info.Size.X; i++ {
		for j := 0; j < info.Size.Y; j++ {
			for k := 0; k < info.Size.Z; k++ {
				m.chunks[m.chunkIndex(i, j, k)] = NewChunk(Coord{i, j, k}, info.ChunkSize)
			}
		}
	}
	return m, nil
}

func (m *Map) chunkIndex(i, j, k int) int {
	return (i*m.Info.Size.Y+j)*m.Info.Size.Z + k
}

// Chunk returns the chunk at chunk index (i,j,k), nil if out of range.
func (m *Map) Chunk(i, j, k int) *Chunk {
	if !(Coord{i, j, k}).Within(m.Info.Size) {
		return nil
	}
	idx := m.chunkIndex(i, j, k)
	if idx >= len(m.chunks) {
		return nil
	}
	return m.chunks[idx]
}

// SetChunk replaces the chunk at its own index. The chunk size must match the map.
func (m *Map) SetChunk(c *Chunk) error {
	if c == nil {
		return errors.New("nil chunk")
	}
	if c.Size != m.Info.ChunkSize {
		return errors.Errorf("chunk size %d does not match map chunk size %d", c.Size, m.Info.ChunkSize)
	}
	if !c.Index.Within(m.Info.Size) {
		return errors.Errorf("chunk index %v outside map size %v", c.Index, m.Info.Size)
	}
	if want := c.Index.Scale(c.Size); c.WorldPosition != want {
		return errors.Errorf("chunk %v at world position %v, want %v", c.Index, c.WorldPosition, want)
	}
	if len(m.chunks) != m.Info.ChunkCount() {
		return errors.New("map not allocated by NewMap")
	}
	m.chunks[m.chunkIndex(c.Index.X, c.Index.Y, c.Index.Z)] = c
	return nil
}

// ChunkAtBlock returns the chunk containing the absolute block coordinate.
func (m *Map) ChunkAtBlock(x, y, z int) *Chunk {
	if x < 0 || y < 0 || z < 0 {
		return nil
	}
	cs := m.Info.ChunkSize
	return m.Chunk(x/cs, y/cs, z/cs)
}

// BlockAt returns the block at an absolute block coordinate. Outside the map is empty.
func (m *Map) BlockAt(x, y, z int) Block {
	c := m.ChunkAtBlock(x, y, z)
	if c == nil {
		return Block{}
	}
	cs := m.Info.ChunkSize
	return c.Block(x%cs, y%cs, z%cs)
}

// SetBlockAt writes a block at an absolute block coordinate.
func (m *Map) SetBlockAt(x, y, z int, b Block) {
	c := m.ChunkAtBlock(x, y, z)
	if c == nil {
		return
	}
	cs := m.Info.ChunkSize
	c.SetBlock(x%cs, y%cs, z%cs, b)
}

// Chunks lists all chunks with i outermost and k innermost.
func (m *Map) Chunks() []*Chunk {
	out := make([]*Chunk, len(m.chunks))
	copy(out, m.chunks)
	return out
}

// Populate fills every chunk using the generator.
func (m *Map) Populate(gen TerrainGenerator) {
	for _, c := range m.chunks {
		gen.PopulateChunk(c, m.Info)
	}
}
