package apperror

import "errors"

var (
	ErrGameFinished      = errors.New("game is already finished")
	ErrGameIsNotStarted  = errors.New("game is not started")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrNoActiveGames     = errors.New("no active games")
	ErrIllegalPlacement  = errors.New("illegal placement")
	ErrNoBlocksLeft      = errors.New("no blocks left")
	ErrGameAlreadyExists = errors.New("game already exists")
	ErrNotFound          = errors.New("not found")
	ErrNotAPlayer        = errors.New("player is not part of this game")
	ErrInvalidHistory    = errors.New("invalid block history")
)
