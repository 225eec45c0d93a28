package world

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Coord is an integer 3D position, in blocks or in chunks depending on context.
type Coord struct {
	X, Y, Z int
}

func (c Coord) Add(o Coord) Coord {
	return Coord{c.X + o.X, c.Y + o.Y, c.Z + o.Z}
}

func (c Coord) Scale(s int) Coord {
	return Coord{c.X * s, c.Y * s, c.Z * s}
}

// Mul multiplies component-wise.
func (c Coord) Mul(o Coord) Coord {
	return Coord{c.X * o.X, c.Y * o.Y, c.Z * o.Z}
}

// Less orders coordinates by X, then Y, then Z.
func (c Coord) Less(o Coord) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.Z < o.Z
}

// Within reports whether 0 <= c < bounds on every axis.
func (c Coord) Within(bounds Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.Z >= 0 && c.X < bounds.X && c.Y < bounds.Y && c.Z < bounds.Z
}

func (c Coord) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(c.X), float32(c.Y), float32(c.Z)}
}

// Chunk is a cubic grid of Size^3 blocks. WorldPosition is Index*Size.
type Chunk struct {
	Index         Coord
	WorldPosition Coord
	Size          int
	blocks        []Block
}

// NewChunk creates an empty chunk at the given chunk index.
func NewChunk(index Coord, size int) *Chunk {
	return &Chunk{
		Index:         index,
		WorldPosition: index.Scale(size),
		Size:          size,
		blocks:        make([]Block, size*size*size),
	}
}

// blockIndex converts local coordinates to a flat index (x-major, then y, then z)
func (c *Chunk) blockIndex(x, y, z int) int {
	return (x*c.Size+y)*c.Size + z
}

// Contains reports whether the local coordinate lies inside the chunk.
func (c *Chunk) Contains(x, y, z int) bool {
	return x >= 0 && x < c.Size && y >= 0 && y < c.Size && z >= 0 && z < c.Size
}

// Block returns the block at local coordinates. Out of range reads return an empty block.
func (c *Chunk) Block(x, y, z int) Block {
	if !c.Contains(x, y, z) {
		return Block{}
	}
	return c.blocks[c.blockIndex(x, y, z)]
}

// SetBlock writes the block at local coordinates. Out of range writes are ignored.
func (c *Chunk) SetBlock(x, y, z int, b Block) {
	if !c.Contains(x, y, z) {
		return
	}
	c.blocks[c.blockIndex(x, y, z)] = b
}

// Type returns the block type at local coordinates.
func (c *Chunk) Type(x, y, z int) BlockType {
	return c.Block(x, y, z).Type
}

// IsEmpty checks a local, in-bounds coordinate. Neighbor queries across the
// chunk border belong to the mesher, which knows about the rest of the map.
func (c *Chunk) IsEmpty(x, y, z int) bool {
	return c.blocks[c.blockIndex(x, y, z)].Type == BlockTypeEmpty
}

// Fill sets every block of the chunk.
func (c *Chunk) Fill(b Block) {
	for i := range c.blocks {
		c.blocks[i] = b
	}
}

// CountNonEmpty returns the number of non-air blocks.
func (c *Chunk) CountNonEmpty() int {
	n := 0
	for _, b := range c.blocks {
		if b.Type != BlockTypeEmpty {
			n++
		}
	}
	return n
}
