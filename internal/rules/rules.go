// Package rules decides where blocks land, whether a placement is legal and
// whether a player has won or run out of moves. All functions are pure.
package rules

import "github.com/rocketscienceinc/stackfive-backend/internal/grid"

// Rejection is the first legality check a placement failed.
type Rejection uint8

const (
	Accepted Rejection = iota
	NoSupport
	TooWide
	Detached
	ShortSide
	Misplaced
)

func (that Rejection) String() string {
	switch that {
	case Accepted:
		return "accepted"
	case NoSupport:
		return "block has no valid resting place"
	case TooWide:
		return "structure would span more than 9 columns"
	case Detached:
		return "block does not touch the structure"
	case ShortSide:
		return "block abuts a same-owner block on its short side"
	case Misplaced:
		return "block does not rest where gravity drops it"
	default:
		return "unknown rejection"
	}
}

type offset struct{ dx, dy int }

// touchOffsets are the neighbours, relative to the origin, that connect a block
// to the existing structure.
var touchOffsets = [2][6]offset{
	grid.Vertical:   {{-1, 0}, {1, 0}, {0, -1}, {-1, 1}, {1, 1}, {0, 2}},
	grid.Horizontal: {{-1, 0}, {0, -1}, {0, 1}, {1, -1}, {1, 1}, {2, 0}},
}

// shortSideOffsets are the cells that may not hold a same-owner block of the
// same orientation.
var shortSideOffsets = [2][]offset{
	grid.Vertical:   {{0, -1}},
	grid.Horizontal: {{-1, 0}, {2, 0}},
}

// winDirections is also the scan order of CheckWin.
var winDirections = [4]offset{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

// DropPosition resolves the row a block dropped at column x comes to rest on.
func DropPosition(board grid.Board, x int, orientation grid.Orientation) (int, bool) {
	if orientation == grid.Vertical {
		y := board.Height(x)
		if y+1 >= grid.GridSize {
			return 0, false
		}
		return y, true
	}

	left, right := board.Height(x), board.Height(x+1)
	y := max(left, right)
	if y != 0 && left != right {
		return 0, false
	}
	if y >= grid.GridSize {
		return 0, false
	}

	return y, true
}

// ValidateMove reports whether a block at (x, y) passes every legality check.
func ValidateMove(board grid.Board, x, y int, orientation grid.Orientation, owner grid.Owner) bool {
	return Check(board, grid.Move{X: x, Y: y, Orientation: orientation, Owner: owner}) == Accepted
}

// Check runs the legality checks in order: support, width, connectivity, short side.
func Check(board grid.Board, move grid.Move) Rejection {
	if move.Y < 0 {
		return NoSupport
	}

	if !fitsWidth(board, move) {
		return TooWide
	}

	if !board.IsEmpty() && !touches(board, move) {
		return Detached
	}

	if abutsShortSide(board, move) {
		return ShortSide
	}

	return Accepted
}

// Legal is Check for moves that did not come from DropPosition: the move must
// rest exactly where gravity puts it.
func Legal(board grid.Board, move grid.Move) Rejection {
	y, ok := DropPosition(board, move.X, move.Orientation)
	if !ok {
		return NoSupport
	}
	if y != move.Y {
		return Misplaced
	}

	return Check(board, move)
}

func fitsWidth(board grid.Board, move grid.Move) bool {
	first, last := move.Span()
	if !board.IsEmpty() {
		bounds := board.Bounds()
		first = min(first, bounds.MinX)
		last = max(last, bounds.MaxX)
	}

	return last-first+1 <= grid.GridSize
}

func touches(board grid.Board, move grid.Move) bool {
	for _, off := range touchOffsets[move.Orientation] {
		if board.Occupied(move.X+off.dx, move.Y+off.dy) {
			return true
		}
	}

	return false
}

func abutsShortSide(board grid.Board, move grid.Move) bool {
	for _, off := range shortSideOffsets[move.Orientation] {
		cell, ok := board.At(move.X+off.dx, move.Y+off.dy)
		if ok && cell.Owner == move.Owner && cell.Orientation == move.Orientation {
			return true
		}
	}

	return false
}

// HasValidMove reports whether the owner has any legal placement. It ignores the
// block limit; see CanMove.
func HasValidMove(board grid.Board, owner grid.Owner) bool {
	if board.IsEmpty() {
		return true
	}

	bounds := board.Bounds()
	for x := bounds.MinX - grid.GridSize; x <= bounds.MaxX+grid.GridSize; x++ {
		for _, orientation := range grid.Orientations {
			y, ok := DropPosition(board, x, orientation)
			if ok && ValidateMove(board, x, y, orientation, owner) {
				return true
			}
		}
	}

	return false
}

// Exhausted reports whether the owner has placed all of their blocks.
func Exhausted(board grid.Board, owner grid.Owner) bool {
	return board.BlockCount(owner) >= grid.MaxBlocksPerPlayer
}

// CanMove combines the block limit with HasValidMove.
func CanMove(board grid.Board, owner grid.Owner) bool {
	return !Exhausted(board, owner) && HasValidMove(board, owner)
}

// CheckWin returns the first run of WinLength owner cells, scanning cells in
// insertion order and directions in winDirections order. It returns nil when the
// owner has no such run.
func CheckWin(board grid.Board, owner grid.Owner) []grid.Coord {
	var line []grid.Coord

	board.Each(func(start grid.Coord, cell grid.Cell) bool {
		if cell.Owner != owner {
			return true
		}

		for _, dir := range winDirections {
			run := make([]grid.Coord, 0, grid.WinLength)
			x, y := start.X, start.Y
			for board.OwnedBy(x, y, owner) {
				run = append(run, grid.Coord{X: x, Y: y})
				if len(run) == grid.WinLength {
					line = run
					return false
				}
				x += dir.dx
				y += dir.dy
			}
		}

		return true
	})

	return line
}
