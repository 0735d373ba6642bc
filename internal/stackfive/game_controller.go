package stackfive

import (
	"fmt"

	"github.com/rocketscienceinc/stackfive-backend/internal/apperror"
	"github.com/rocketscienceinc/stackfive-backend/internal/entity"
	"github.com/rocketscienceinc/stackfive-backend/internal/grid"
	"github.com/rocketscienceinc/stackfive-backend/internal/rules"
)

// MakeTurn drops a block for the owner at column x and resolves the game status.
// The game is left untouched when an error is returned.
func MakeTurn(gameInstance *entity.Game, owner grid.Owner, x int, orientation grid.Orientation) (grid.Block, error) {
	if err := gameInstance.ConfirmOngoingState(); err != nil {
		return grid.Block{}, err
	}

	board := gameInstance.Board()

	move, err := validateMove(gameInstance, board, owner, x, orientation)
	if err != nil {
		return grid.Block{}, fmt.Errorf("invalid turn: %w", err)
	}

	block := move.Block(gameInstance.NextBlockID())
	gameInstance.History = append(gameInstance.History, block)
	updateGameStatus(gameInstance, board.Apply(block), owner)

	return block, nil
}

// validateMove - resolves the landing row and runs the placement rules.
func validateMove(gameInstance *entity.Game, board grid.Board, owner grid.Owner, x int, orientation grid.Orientation) (grid.Move, error) {
	if gameInstance.Turn != owner {
		return grid.Move{}, apperror.ErrNotYourTurn
	}

	if rules.Exhausted(board, owner) {
		return grid.Move{}, apperror.ErrNoBlocksLeft
	}

	y, ok := rules.DropPosition(board, x, orientation)
	if !ok {
		return grid.Move{}, fmt.Errorf("%w: %s", apperror.ErrIllegalPlacement, rules.NoSupport)
	}

	move := grid.Move{X: x, Y: y, Orientation: orientation, Owner: owner}
	if rejection := rules.Check(board, move); rejection != rules.Accepted {
		return grid.Move{}, fmt.Errorf("%w: %s", apperror.ErrIllegalPlacement, rejection)
	}

	return move, nil
}

// updateGameStatus - decides who moves next after the owner placed a block.
// The opponent moves if they can; otherwise the owner moves again; when neither
// can, the game is a draw.
func updateGameStatus(gameInstance *entity.Game, board grid.Board, owner grid.Owner) {
	if line := rules.CheckWin(board, owner); line != nil {
		gameInstance.Winner = owner
		gameInstance.WinLine = line
		gameInstance.Status = entity.StatusFinished
		gameInstance.Turn = grid.NoOwner
		return
	}

	switch {
	case rules.CanMove(board, owner.Opponent()):
		gameInstance.Turn = owner.Opponent()
	case rules.CanMove(board, owner):
		gameInstance.Turn = owner
	default:
		gameInstance.Draw = true
		gameInstance.Status = entity.StatusFinished
		gameInstance.Turn = grid.NoOwner
	}
}

// Replay rebuilds a board from a history that came from outside, checking every
// block against the rules before it is applied.
func Replay(history []grid.Block) (grid.Board, error) {
	board := grid.NewBoard()

	for i, block := range history {
		if block.ID != i+1 {
			return grid.Board{}, fmt.Errorf("%w: block %d has id %d", apperror.ErrInvalidHistory, i+1, block.ID)
		}

		if block.Owner != grid.White && block.Owner != grid.Black {
			return grid.Board{}, fmt.Errorf("%w: block %d has no owner", apperror.ErrInvalidHistory, block.ID)
		}

		if rules.Exhausted(board, block.Owner) {
			return grid.Board{}, fmt.Errorf("%w: block %d: %w", apperror.ErrInvalidHistory, block.ID, apperror.ErrNoBlocksLeft)
		}

		if rejection := rules.Legal(board, block.Move()); rejection != rules.Accepted {
			return grid.Board{}, fmt.Errorf("%w: block %d: %s", apperror.ErrInvalidHistory, block.ID, rejection)
		}

		board.Push(block)

		if i < len(history)-1 && rules.CheckWin(board, block.Owner) != nil {
			return grid.Board{}, fmt.Errorf("%w: game was won by block %d", apperror.ErrInvalidHistory, block.ID)
		}
	}

	return board, nil
}
