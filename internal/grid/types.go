package grid

import (
	"errors"
	"fmt"
)

const (
	// GridSize caps both the row height and the number of distinct occupied columns.
	GridSize = 9
	// WinLength is the run of same-owner cells that wins the game.
	WinLength = 5
	// MaxBlocksPerPlayer is how many blocks one player may place in a game.
	MaxBlocksPerPlayer = 20
)

var (
	ErrUnknownOwner       = errors.New("unknown owner")
	ErrUnknownOrientation = errors.New("unknown orientation")
)

// Owner is one of the two players. The zero value means "nobody".
type Owner uint8

const (
	NoOwner Owner = iota
	White
	Black
)

func (that Owner) Opponent() Owner {
	switch that {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoOwner
	}
}

func (that Owner) String() string {
	switch that {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return ""
	}
}

func (that Owner) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Owner) UnmarshalText(text []byte) error {
	owner, err := ParseOwner(string(text))
	if err != nil {
		return err
	}

	*that = owner

	return nil
}

// ParseOwner accepts "white", "black" and the empty string (NoOwner).
func ParseOwner(value string) (Owner, error) {
	switch value {
	case "white":
		return White, nil
	case "black":
		return Black, nil
	case "":
		return NoOwner, nil
	default:
		return NoOwner, fmt.Errorf("%w: %q", ErrUnknownOwner, value)
	}
}

// Orientation of a block: vertical is 1 wide and 2 tall, horizontal is 2 wide and 1 tall.
type Orientation uint8

const (
	Vertical Orientation = iota
	Horizontal
)

// Orientations lists both orientations in generation order.
var Orientations = [2]Orientation{Vertical, Horizontal}

func (that Orientation) String() string {
	if that == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

func (that Orientation) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Orientation) UnmarshalText(text []byte) error {
	orientation, err := ParseOrientation(string(text))
	if err != nil {
		return err
	}

	*that = orientation

	return nil
}

func ParseOrientation(value string) (Orientation, error) {
	switch value {
	case "vertical":
		return Vertical, nil
	case "horizontal":
		return Horizontal, nil
	default:
		return Vertical, fmt.Errorf("%w: %q", ErrUnknownOrientation, value)
	}
}

// Part tells which half of its block a cell is.
type Part uint8

const (
	Origin Part = iota
	Extension
)

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Cell struct {
	Owner       Owner
	Orientation Orientation
	BlockID     int
	Part        Part
}

// Move is a placement request; Y is the resting row resolved by gravity.
type Move struct {
	X           int         `json:"x"`
	Y           int         `json:"y"`
	Orientation Orientation `json:"orientation"`
	Owner       Owner       `json:"owner"`
}

// Cells returns the origin and extension coordinates the move would occupy.
func (that Move) Cells() [2]Coord {
	if that.Orientation == Horizontal {
		return [2]Coord{{X: that.X, Y: that.Y}, {X: that.X + 1, Y: that.Y}}
	}
	return [2]Coord{{X: that.X, Y: that.Y}, {X: that.X, Y: that.Y + 1}}
}

// Span returns the first and last column the move occupies.
func (that Move) Span() (int, int) {
	if that.Orientation == Horizontal {
		return that.X, that.X + 1
	}
	return that.X, that.X
}

func (that Move) Block(id int) Block {
	return Block{
		ID:          id,
		X:           that.X,
		Y:           that.Y,
		Orientation: that.Orientation,
		Owner:       that.Owner,
	}
}

// Block is a placed move.
type Block struct {
	ID          int         `json:"id"`
	X           int         `json:"x"`
	Y           int         `json:"y"`
	Orientation Orientation `json:"orientation"`
	Owner       Owner       `json:"owner"`
}

func (that Block) Move() Move {
	return Move{
		X:           that.X,
		Y:           that.Y,
		Orientation: that.Orientation,
		Owner:       that.Owner,
	}
}

// Bounds is the inclusive range of occupied columns.
type Bounds struct {
	MinX int `json:"min_x"`
	MaxX int `json:"max_x"`
}

// Width is the number of distinct columns between MinX and MaxX.
func (that Bounds) Width() int {
	return that.MaxX - that.MinX + 1
}
