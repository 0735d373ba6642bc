package movegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/stackfive-backend/internal/grid"
	"github.com/rocketscienceinc/stackfive-backend/internal/rules"
)

func TestGenerate(t *testing.T) {
	t.Run("Empty board offers the origin column only", func(t *testing.T) {
		// When: generating moves on an empty board
		moves := Generate(grid.NewBoard(), grid.White)

		// Then: both orientations at x=0 are offered, vertical first
		expected := []grid.Move{
			{X: 0, Y: 0, Orientation: grid.Vertical, Owner: grid.White},
			{X: 0, Y: 0, Orientation: grid.Horizontal, Owner: grid.White},
		}
		assert.Equal(t, expected, moves)
	})

	t.Run("Moves around a single block", func(t *testing.T) {
		// Given: one white vertical block at x=0
		board := grid.Rebuild([]grid.Block{{ID: 1, X: 0, Y: 0, Orientation: grid.Vertical, Owner: grid.White}})

		// When: generating black moves
		moves := Generate(board, grid.Black)

		// Then: every move is legal, ordered, and the expected set is produced
		expected := []grid.Move{
			{X: -2, Y: 0, Orientation: grid.Horizontal, Owner: grid.Black},
			{X: -1, Y: 0, Orientation: grid.Vertical, Owner: grid.Black},
			{X: 0, Y: 2, Orientation: grid.Vertical, Owner: grid.Black},
			{X: 1, Y: 0, Orientation: grid.Vertical, Owner: grid.Black},
			{X: 1, Y: 0, Orientation: grid.Horizontal, Owner: grid.Black},
		}
		assert.Equal(t, expected, moves)

		for _, move := range moves {
			assert.Equal(t, rules.Accepted, rules.Legal(board, move))
		}
	})

	t.Run("Short side rule removes the stacked vertical", func(t *testing.T) {
		board := grid.Rebuild([]grid.Block{{ID: 1, X: 0, Y: 0, Orientation: grid.Vertical, Owner: grid.White}})

		moves := Generate(board, grid.White)

		assert.NotContains(t, moves, grid.Move{X: 0, Y: 2, Orientation: grid.Vertical, Owner: grid.White})
		assert.Len(t, moves, 4)
	})

	t.Run("Exhausted player has no moves", func(t *testing.T) {
		// Given: white has already placed every block
		board := grid.NewBoard()
		for i := 0; i < grid.MaxBlocksPerPlayer; i++ {
			board.Push(grid.Block{ID: i + 1, X: i * 2, Y: 0, Orientation: grid.Horizontal, Owner: grid.White})
		}
		require.True(t, rules.Exhausted(board, grid.White))

		// Then: no move is generated for white
		assert.Empty(t, Generate(board, grid.White))
	})
}
