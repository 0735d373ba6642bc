// Package movegen enumerates the legal placements of one player.
package movegen

import (
	"github.com/rocketscienceinc/stackfive-backend/internal/grid"
	"github.com/rocketscienceinc/stackfive-backend/internal/rules"
)

// margin is how far outside the occupied columns candidate drops are tried.
const margin = 2

// Generate returns every legal move of the owner, ascending by x and then by
// orientation (vertical first). A player without blocks left gets no moves.
func Generate(board grid.Board, owner grid.Owner) []grid.Move {
	if rules.Exhausted(board, owner) {
		return nil
	}

	first, last := 0, 0
	if !board.IsEmpty() {
		bounds := board.Bounds()
		first, last = bounds.MinX-margin, bounds.MaxX+margin
	}

	moves := make([]grid.Move, 0, 2*(last-first+1))
	for x := first; x <= last; x++ {
		for _, orientation := range grid.Orientations {
			y, ok := rules.DropPosition(board, x, orientation)
			if !ok || !rules.ValidateMove(board, x, y, orientation, owner) {
				continue
			}

			moves = append(moves, grid.Move{X: x, Y: y, Orientation: orientation, Owner: owner})
		}
	}

	return moves
}
