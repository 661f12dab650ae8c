// Package engine implements the grid game simulation: field generation,
// movement validation, collision resolution, item collection, level
// progression, and zombie movement. The engine is pure state-machine code;
// it performs no I/O and holds no Discord types. A single Game is not safe
// for concurrent use; callers serialize access per session.
package engine

import "fmt"

// Direction is one of the four movement directions a player or zombie can
// step in.
type Direction int

// Movement directions.
const (
	Up Direction = iota
	Down
	Left
	Right
)

// Vector returns the unit cell offset for the direction.
func (d Direction) Vector() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	default:
		return 0, 0
	}
}

// String returns the lowercase direction name.
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection converts a lowercase direction name into a Direction.
//
// Postcondition: Returns an error for any string that is not one of
// "up", "down", "left", "right".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}

// Point is a cell coordinate on the field. X grows rightward, Y grows
// downward; the origin is the top-left playable cell.
type Point struct {
	X int
	Y int
}

// Add returns the point offset by (dx, dy).
func (p Point) Add(dx, dy int) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// ItemType identifies a collectible item kind.
type ItemType string

// Collectible item kinds.
const (
	ItemDiamond ItemType = "diamond"
	ItemWood    ItemType = "wood"
	ItemStone   ItemType = "stone"
	ItemCoal    ItemType = "coal"
)

// ItemTypes lists all collectible kinds in a stable order.
var ItemTypes = []ItemType{ItemDiamond, ItemWood, ItemStone, ItemCoal}

// MoveOutcome reports everything that happened during a single player move.
// A move can carry several flags at once: stepping onto an item a zombie
// already occupies both collects the item and costs a life.
type MoveOutcome struct {
	// Blocked is true when the move hit a wall, an obstacle, or the field
	// boundary. A blocked move changes no session state at all.
	Blocked bool
	// Moved is true when the player position changed.
	Moved bool
	// ItemCollected is the kind of item picked up this move, or "" if none.
	ItemCollected ItemType
	// LevelAdvanced is true when the player entered an active portal and the
	// field was regenerated for the next level.
	LevelAdvanced bool
	// LifeLost is true when a zombie collision cost the player a life.
	LifeLost bool
	// ShieldUsed is true when a shield absorbed a zombie hit instead of a life.
	ShieldUsed bool
	// ZombiesTicked is true when this move triggered a zombie movement step.
	ZombiesTicked bool
	// GameOver is true when the session became terminal during this move.
	GameOver bool
}

// ZombieTickOutcome reports the result of a single zombie movement step.
type ZombieTickOutcome struct {
	// Moved is the number of zombies that changed cell.
	Moved int
	// LifeLost is true when a zombie stepped onto the player.
	LifeLost bool
	// ShieldUsed is true when a shield absorbed the hit.
	ShieldUsed bool
	// GameOver is true when the collision exhausted the player's lives.
	GameOver bool
}
