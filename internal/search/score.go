package search

import "github.com/rocketscienceinc/stackfive-backend/internal/grid"

// window weights indexed by the number of cells a single side holds in a window.
var (
	ownWeights      = [grid.WinLength + 1]int{0, 0, 10, 100, 1000, 100000}
	opponentWeights = [grid.WinLength + 1]int{0, 0, -10, -150, -2000, -100000}
)

type direction struct{ dx, dy int }

var windowDirections = [4]direction{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

var neighbourhood = [8]direction{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Score evaluates the board from the owner's point of view. Higher is better.
func Score(board grid.Board, owner grid.Owner) int {
	if board.IsEmpty() {
		return 0
	}

	return windowScore(board, owner) + positionScore(board, owner)
}

// windowScore walks every window of WinLength cells starting inside the occupied
// box widened by two on each side.
func windowScore(board grid.Board, owner grid.Owner) int {
	opponent := owner.Opponent()
	bounds := board.Bounds()
	minY, maxY := rowRange(board)

	total := 0
	for x := bounds.MinX - 2; x <= bounds.MaxX+2; x++ {
		for y := minY - 2; y <= maxY+2; y++ {
			for _, dir := range windowDirections {
				own, theirs := 0, 0
				for i := 0; i < grid.WinLength; i++ {
					cell, ok := board.At(x+i*dir.dx, y+i*dir.dy)
					if !ok {
						continue
					}
					switch cell.Owner {
					case owner:
						own++
					case opponent:
						theirs++
					}
				}

				switch {
				case own > 0 && theirs > 0:
				case own > 0:
					total += ownWeights[own]
				case theirs > 0:
					total += opponentWeights[theirs]
				}
			}
		}
	}

	return total
}

// rowRange is the lowest and highest occupied row.
func rowRange(board grid.Board) (int, int) {
	minY, maxY := grid.GridSize, -1

	board.Each(func(coord grid.Coord, _ grid.Cell) bool {
		minY = min(minY, coord.Y)
		maxY = max(maxY, coord.Y)
		return true
	})

	return minY, maxY
}

// positionScore favours cells near x=0 and cells with same-owner neighbours.
func positionScore(board grid.Board, owner grid.Owner) int {
	total := 0

	board.Each(func(coord grid.Coord, cell grid.Cell) bool {
		if cell.Owner != owner {
			return true
		}

		total += max(0, 5-abs(coord.X)) * 3
		for _, dir := range neighbourhood {
			if board.OwnedBy(coord.X+dir.dx, coord.Y+dir.dy, owner) {
				total += 3
			}
		}

		return true
	})

	return total
}

func abs(value int) int {
	if value < 0 {
		return -value
	}
	return value
}
