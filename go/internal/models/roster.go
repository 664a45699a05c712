package models

import "fmt"

// Position is the numeric position id stored on a player document
type Position int

const (
	PositionFirstBase Position = iota + 1
	PositionSecondBase
	PositionThirdBase
	PositionPitcher
	PositionCatcher
	PositionShortstop
	PositionLeftField
	PositionCenterField
	PositionRightField
	PositionDesignatedHitter
)

var positionNames = map[Position]string{
	PositionFirstBase:        "firstBase",
	PositionSecondBase:       "secondBase",
	PositionThirdBase:        "thirdBase",
	PositionPitcher:          "pitcher",
	PositionCatcher:          "catcher",
	PositionShortstop:        "shortstop",
	PositionLeftField:        "leftField",
	PositionCenterField:      "centerField",
	PositionRightField:       "rightField",
	PositionDesignatedHitter: "designatedHitter",
}

// String returns the position name, e.g. "shortstop"
func (p Position) String() string {
	if name, ok := positionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Position(%d)", int(p))
}

// Valid reports whether p is one of the known positions
func (p Position) Valid() bool {
	_, ok := positionNames[p]
	return ok
}

// ParsePosition maps a position name back to its id
func ParsePosition(name string) (Position, error) {
	for pos, n := range positionNames {
		if n == name {
			return pos, nil
		}
	}
	return 0, fmt.Errorf("unknown position %q", name)
}
