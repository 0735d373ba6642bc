package main

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/stackfive-backend/internal/grid"
	"github.com/rocketscienceinc/stackfive-backend/internal/search"
	"github.com/rocketscienceinc/stackfive-backend/internal/stackfive"
)

func TestSimulateGame(t *testing.T) {
	// Given: a seeded engine and two quick bots
	engine, err := search.NewEngine(rand.New(rand.NewSource(5)), 1024)
	require.NoError(t, err)

	levels := map[grid.Owner]search.Difficulty{grid.White: search.Easy, grid.Black: search.Easy}

	// When: they play one game
	game, err := simulateGame("g1", engine, levels)

	// Then: the game ends and its history replays cleanly
	require.NoError(t, err)
	assert.True(t, game.IsFinished())
	assert.NotEmpty(t, game.Result())
	assert.LessOrEqual(t, len(game.History), 2*grid.MaxBlocksPerPlayer)

	_, err = stackfive.Replay(game.History)
	require.NoError(t, err)

	var result tally
	result.add(game)
	assert.Equal(t, 1, result.white+result.black+result.draws)
}
