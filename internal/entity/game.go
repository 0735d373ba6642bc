package entity

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/rocketscienceinc/stackfive-backend/internal/apperror"
	"github.com/rocketscienceinc/stackfive-backend/internal/grid"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"
)

const (
	PublicType  = "public"
	PrivateType = "private"
	WithBotType = "bot"
)

var ErrUnknownGameStatus = errors.New("unknown game status")

// Game is the stored state of one match. The board is never stored; it is
// rebuilt from History.
type Game struct {
	ID         string       `json:"id"`
	History    []grid.Block `json:"history"`
	Turn       grid.Owner   `json:"turn"`
	Winner     grid.Owner   `json:"winner,omitempty"`
	WinLine    []grid.Coord `json:"win_line,omitempty"`
	Draw       bool         `json:"draw,omitempty"`
	Status     string       `json:"status"`
	Players    []*Player    `json:"players,omitempty"`
	Type       string       `json:"type,omitempty"`
	Difficulty string       `json:"difficulty,omitempty"`
}

// NewGame returns a waiting game with white to move.
func NewGame(id, gameType string) *Game {
	return &Game{
		ID:      id,
		History: []grid.Block{},
		Turn:    grid.White,
		Status:  StatusWaiting,
		Type:    gameType,
	}
}

func (that *Game) Board() grid.Board {
	return grid.Rebuild(that.History)
}

// NextBlockID is the id the next accepted block gets.
func (that *Game) NextBlockID() int {
	return len(that.History) + 1
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}

func (that *Game) IsPublic() bool {
	return that.Type == PublicType
}

func (that *Game) IsWithBot() bool {
	return that.Type == WithBotType
}

// PlayerByOwner returns the seated player playing the owner's colour, or nil.
func (that *Game) PlayerByOwner(owner grid.Owner) *Player {
	for _, player := range that.Players {
		if player.Mark == owner {
			return player
		}
	}

	return nil
}

// PlayerByID returns the seated player with the id, or nil.
func (that *Game) PlayerByID(id string) *Player {
	for _, player := range that.Players {
		if player.ID == id {
			return player
		}
	}

	return nil
}

func (that *Game) Bot() *Player {
	for _, player := range that.Players {
		if player.IsBot() {
			return player
		}
	}

	return nil
}

// Result is a short human label: "white", "black", "draw" or "" while the game runs.
func (that *Game) Result() string {
	switch {
	case !that.IsFinished():
		return ""
	case that.Draw:
		return "draw"
	default:
		return that.Winner.String()
	}
}

// GetRandomMarks returns the colours for the first and the second seat.
func (that *Game) GetRandomMarks() (grid.Owner, grid.Owner) {
	if rand.Intn(2) == 0 { //nolint: gosec // it's ok
		return grid.White, grid.Black
	}
	return grid.Black, grid.White
}
