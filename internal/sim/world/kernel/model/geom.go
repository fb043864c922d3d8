package model

import (
	"fmt"
	"strings"
)

// Location is an integer grid coordinate. (0,0) is the top-left cell; Y grows southward.
type Location struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (l Location) Add(d Direction) Location {
	dx, dy := d.Delta()
	return Location{X: l.X + dx, Y: l.Y + dy}
}

func (l Location) Step(d Direction, n int) Location {
	dx, dy := d.Delta()
	return Location{X: l.X + dx*n, Y: l.Y + dy*n}
}

func (l Location) String() string { return fmt.Sprintf("(%d,%d)", l.X, l.Y) }

// Direction is an absolute heading.
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
)

// Directions lists the absolute headings in clockwise order.
var Directions = [4]Direction{North, East, South, West}

func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	default:
		return -1, 0
	}
}

func (d Direction) Right() Direction    { return (d + 1) % 4 }
func (d Direction) Left() Direction     { return (d + 3) % 4 }
func (d Direction) Backward() Direction { return (d + 2) % 4 }

// Turn applies a relative direction to d.
func (d Direction) Turn(r RelDir) Direction {
	return (d + Direction(r)) % 4
}

// RelativeTo returns the relative direction of d as seen by something facing f.
func (d Direction) RelativeTo(f Direction) RelDir {
	return RelDir((d + 4 - f) % 4)
}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	}
	return "unknown"
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	v, ok := ParseDirection(string(b))
	if !ok {
		return fmt.Errorf("bad direction %q", string(b))
	}
	*d = v
	return nil
}

// ParseDirection accepts north/east/south/west and their first letters, case-insensitively.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n", "up":
		return North, true
	case "east", "e", "right":
		return East, true
	case "south", "s", "down":
		return South, true
	case "west", "w", "left":
		return West, true
	}
	return North, false
}

// RelDir is a direction relative to an agent's facing. The numeric values
// are clockwise quarter turns so Direction.Turn is plain addition.
type RelDir uint8

const (
	Forward RelDir = iota
	RightSide
	Backward
	LeftSide
)

var RelDirs = [4]RelDir{Forward, RightSide, Backward, LeftSide}

func (r RelDir) String() string {
	switch r {
	case Forward:
		return "forward"
	case RightSide:
		return "right"
	case Backward:
		return "backward"
	case LeftSide:
		return "left"
	}
	return "unknown"
}

// ParseRelDir accepts forward/backward/left/right and their first letters.
func ParseRelDir(s string) (RelDir, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward", "f", "ahead":
		return Forward, true
	case "right", "r":
		return RightSide, true
	case "backward", "back", "b":
		return Backward, true
	case "left", "l":
		return LeftSide, true
	}
	return Forward, false
}

// ParseHeading resolves a movement string for an agent facing f. Relative
// names win over absolute ones ("left"/"right" are relative here); absolute
// compass names are accepted as a fallback.
func ParseHeading(s string, f Direction) (Direction, bool) {
	if r, ok := ParseRelDir(s); ok {
		return f.Turn(r), true
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n", "east", "e", "south", "s", "west", "w":
		d, _ := ParseDirection(s)
		return d, true
	}
	return f, false
}
