package entity

import (
	"time"

	"github.com/rocketscienceinc/stackfive-backend/internal/grid"
)

// Result is the archived outcome of a finished game.
type Result struct {
	GameID     string       `json:"game_id"`
	Type       string       `json:"type"`
	WhiteID    string       `json:"white_id"`
	BlackID    string       `json:"black_id"`
	Winner     string       `json:"winner"`
	History    []grid.Block `json:"history"`
	FinishedAt time.Time    `json:"finished_at"`
}

// NewResult archives a finished game.
func NewResult(game *Game, finishedAt time.Time) *Result {
	result := &Result{
		GameID:     game.ID,
		Type:       game.Type,
		Winner:     game.Result(),
		History:    game.History,
		FinishedAt: finishedAt.UTC().Truncate(time.Second),
	}

	if white := game.PlayerByOwner(grid.White); white != nil {
		result.WhiteID = white.ID
	}
	if black := game.PlayerByOwner(grid.Black); black != nil {
		result.BlackID = black.ID
	}

	return result
}

// Standing is one leaderboard row.
type Standing struct {
	PlayerID string `json:"player_id"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Draws    int    `json:"draws"`
	Games    int    `json:"games"`
}
