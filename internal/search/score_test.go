package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/stackfive-backend/internal/grid"
)

func TestScore(t *testing.T) {
	t.Run("Empty board is neutral", func(t *testing.T) {
		assert.Equal(t, 0, Score(grid.NewBoard(), grid.White))
	})

	t.Run("Single vertical block", func(t *testing.T) {
		// Given: one white vertical block at the centre
		board := grid.Rebuild([]grid.Block{vertical(1, 0, 0, grid.White)})

		// Then: vertical windows starting at y=-2, -1 and 0 hold both cells, each cell gets centre and neighbour bonus
		assert.Equal(t, 3*10+2*(15+3), Score(board, grid.White))
		assert.Equal(t, -3*10, Score(board, grid.Black))
	})

	t.Run("Mixed windows count for nothing", func(t *testing.T) {
		board := grid.Rebuild([]grid.Block{
			{ID: 1, X: 0, Y: 0, Orientation: grid.Horizontal, Owner: grid.White},
			{ID: 2, X: 2, Y: 0, Orientation: grid.Horizontal, Owner: grid.Black},
		})

		assert.Equal(t, Score(board, grid.White)-positionScore(board, grid.White), windowScore(board, grid.White))
		assert.Less(t, windowScore(board, grid.White), 100)
	})

	t.Run("Four in a row dominates", func(t *testing.T) {
		board := closedFour()

		assert.Greater(t, Score(board, grid.White), 1000)
		assert.Less(t, Score(board, grid.Black), Score(board, grid.White))
	})
}

func TestWindowScore_RowRange(t *testing.T) {
	t.Run("Rows follow the occupied cells", func(t *testing.T) {
		// Given: a black pillar topped by a white vertical block
		board := grid.Rebuild([]grid.Block{
			vertical(1, 0, 0, grid.Black),
			vertical(2, 0, 2, grid.Black),
			vertical(3, 0, 4, grid.Black),
			vertical(4, 0, 6, grid.White),
		})

		minY, maxY := rowRange(board)

		assert.Equal(t, 0, minY)
		assert.Equal(t, 7, maxY)
	})

	t.Run("Windows start two rows around the occupied ones", func(t *testing.T) {
		// Given: a lone white vertical block on rows 6 and 7
		board := grid.Rebuild([]grid.Block{vertical(1, 0, 6, grid.White)})

		// Then: vertical windows starting at rows 4, 5 and 6 hold both cells
		assert.Equal(t, 3*ownWeights[2], windowScore(board, grid.White))
	})
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		input    string
		expected Difficulty
	}{
		{"easy", Easy},
		{"Medium", Medium},
		{" HARD ", Hard},
		{"", Medium},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			difficulty, err := ParseDifficulty(tt.input)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, difficulty)
		})
	}

	_, err := ParseDifficulty("impossible")
	require.ErrorIs(t, err, ErrUnknownDifficulty)

	assert.Equal(t, 1, Easy.Depth())
	assert.Equal(t, 2, Medium.Depth())
	assert.Equal(t, 4, Hard.Depth())
}
