package world

import (
	"github.com/go-gl/mathgl/mgl32"
)

type BlockType uint8

const (
	BlockTypeEmpty BlockType = iota
	BlockTypeDirt
	BlockTypeGrass
	BlockTypeStone
)

// NumberOfNonEmptyBlockTypes is the number of material slots a chunk mesh carries.
// Sub-mesh i holds the faces of BlockType(i+1).
const NumberOfNonEmptyBlockTypes = 3

// Health and direction packing
const (
	MaxHealth     = 0x1F
	healthMask    = 0x1F
	directionMask = 0x07
	directionBits = 5
)

// Block is a single voxel cell. HealthAndDirection keeps a 5 bit health in the
// low bits and a 3 bit direction in the high bits.
type Block struct {
	Type               BlockType
	HealthAndDirection uint8
}

// NewBlock creates a block with the given type, health and facing.
func NewBlock(t BlockType, health uint8, dir Direction) Block {
	return Block{Type: t, HealthAndDirection: PackHealthAndDirection(health, uint8(dir))}
}

// PackHealthAndDirection packs health (0..31) and direction (0..7) into one byte.
// Out of range values are masked, not clamped.
func PackHealthAndDirection(health, direction uint8) uint8 {
	return (health & healthMask) | ((direction & directionMask) << directionBits)
}

// UnpackHealthAndDirection is the inverse of PackHealthAndDirection.
func UnpackHealthAndDirection(packed uint8) (health, direction uint8) {
	return packed & healthMask, (packed >> directionBits) & directionMask
}

func (b Block) IsEmpty() bool {
	return b.Type == BlockTypeEmpty
}

func (b Block) Health() uint8 {
	h, _ := UnpackHealthAndDirection(b.HealthAndDirection)
	return h
}

func (b Block) Direction() Direction {
	_, d := UnpackHealthAndDirection(b.HealthAndDirection)
	return Direction(d)
}

func (b *Block) SetHealth(health uint8) {
	b.HealthAndDirection = PackHealthAndDirection(health, uint8(b.Direction()))
}

func (b *Block) SetDirection(dir Direction) {
	b.HealthAndDirection = PackHealthAndDirection(b.Health(), uint8(dir))
}

// Direction identifies one of the six faces of a voxel
type Direction uint8

const (
	Forward  Direction = iota // +Z
	Backward                  // -Z
	Right                     // +X
	Left                      // -X
	Up                        // +Y
	Down                      // -Y
)

// AllDirections lists the six face directions in declaration order.
var AllDirections = [6]Direction{Forward, Backward, Right, Left, Up, Down}

var directionOffsets = [6]Coord{
	Forward:  {0, 0, 1},
	Backward: {0, 0, -1},
	Right:    {1, 0, 0},
	Left:     {-1, 0, 0},
	Up:       {0, 1, 0},
	Down:     {0, -1, 0},
}

var directionNames = [6]string{"forward", "backward", "right", "left", "up", "down"}

// Offset returns the unit step from a voxel to its neighbor across this face.
func (d Direction) Offset() Coord {
	if int(d) >= len(directionOffsets) {
		return Coord{}
	}
	return directionOffsets[d]
}

// Normal returns the outward face normal.
func (d Direction) Normal() mgl32.Vec3 {
	return d.Offset().Vec3()
}

func (d Direction) Opposite() Direction {
	// Directions are declared in +/- pairs.
	return d ^ 1
}

func (d Direction) Valid() bool {
	return int(d) < len(directionNames)
}

func (d Direction) String() string {
	if !d.Valid() {
		return "invalid"
	}
	return directionNames[d]
}

func (t BlockType) String() string {
	switch t {
	case BlockTypeEmpty:
		return "empty"
	case BlockTypeDirt:
		return "dirt"
	case BlockTypeGrass:
		return "grass"
	case BlockTypeStone:
		return "stone"
	default:
		return "unknown"
	}
}
