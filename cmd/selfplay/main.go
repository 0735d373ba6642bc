// Command selfplay pits two bots against each other and reports the tally.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/rocketscienceinc/stackfive-backend/internal/entity"
	"github.com/rocketscienceinc/stackfive-backend/internal/grid"
	"github.com/rocketscienceinc/stackfive-backend/internal/search"
	"github.com/rocketscienceinc/stackfive-backend/internal/stackfive"
)

const evalCacheSize = 1 << 16

var errStuck = errors.New("bot found no move on its turn")

type tally struct {
	white, black, draws int
}

func (that *tally) add(game *entity.Game) {
	switch {
	case game.Draw:
		that.draws++
	case game.Winner == grid.White:
		that.white++
	case game.Winner == grid.Black:
		that.black++
	}
}

// simulateGame plays one bot game to the end.
func simulateGame(id string, engine *search.Engine, levels map[grid.Owner]search.Difficulty) (*entity.Game, error) {
	game := entity.NewGame(id, entity.WithBotType)
	game.Players = []*entity.Player{entity.NewBot(id, grid.White), entity.NewBot(id, grid.Black)}
	game.Status = entity.StatusOngoing

	for !game.IsFinished() {
		owner := game.Turn

		move, ok := engine.BestMove(game.Board(), owner, levels[owner])
		if !ok {
			return game, fmt.Errorf("%w: %s after %d blocks", errStuck, owner, len(game.History))
		}

		if _, err := stackfive.MakeTurn(game, owner, move.X, move.Orientation); err != nil {
			return game, fmt.Errorf("bot move rejected: %w", err)
		}
	}

	return game, nil
}

func main() {
	white := flag.String("white", "medium", "White bot difficulty (easy, medium, hard)")
	black := flag.String("black", "medium", "Black bot difficulty (easy, medium, hard)")
	num := flag.Int("n", 10, "Number of games to simulate")
	seed := flag.Int64("seed", 0, "Random seed, zero seeds from the clock")
	verbose := flag.Bool("v", false, "Log every finished game")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	levels := make(map[grid.Owner]search.Difficulty, 2)
	for owner, name := range map[grid.Owner]string{grid.White: *white, grid.Black: *black} {
		level, err := search.ParseDifficulty(name)
		if err != nil {
			logger.Error("invalid difficulty", "owner", owner, "error", err)
			os.Exit(1)
		}
		levels[owner] = level
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	engine, err := search.NewEngine(rand.New(rand.NewSource(*seed)), evalCacheSize) //nolint:gosec // game AI, not crypto
	if err != nil {
		logger.Error("could not create engine", "error", err)
		os.Exit(1)
	}

	var result tally
	for i := 0; i < *num; i++ {
		game, err := simulateGame(fmt.Sprintf("selfplay-%d", i+1), engine, levels)
		if err != nil {
			logger.Error("game aborted", "game_id", game.ID, "error", err)
			os.Exit(1)
		}

		result.add(game)
		if *verbose {
			logger.Info("game finished", "game_id", game.ID, "result", game.Result(), "blocks", len(game.History))
		}
	}

	logger.Info("self-play done",
		"games", *num,
		"seed", *seed,
		"white", levels[grid.White],
		"black", levels[grid.Black],
		"white_wins", result.white,
		"black_wins", result.black,
		"draws", result.draws,
	)
}
