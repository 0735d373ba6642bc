package entity

import (
	"strings"

	"github.com/rocketscienceinc/stackfive-backend/internal/grid"
)

const botPrefix = "bot:"

type Player struct {
	ID     string     `json:"id"`
	Mark   grid.Owner `json:"mark,omitempty"`
	GameID string     `json:"game_id,omitempty"`
}

// NewBot seats a bot in the game; its id is derived from the game id.
func NewBot(gameID string, mark grid.Owner) *Player {
	return &Player{
		ID:     botPrefix + gameID,
		Mark:   mark,
		GameID: gameID,
	}
}

func (that *Player) IsBot() bool {
	return strings.HasPrefix(that.ID, botPrefix)
}

// Leave clears the seat so the player can start another game.
func (that *Player) Leave() {
	that.Mark = grid.NoOwner
	that.GameID = ""
}
