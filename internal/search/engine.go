// Package search picks moves for the bot: immediate wins and blocks first, then a
// depth-limited minimax with alpha-beta pruning over the evaluator in Score.
package search

import (
	"fmt"
	"math"
	"sort"

	lru "github.com/hashicorp/golang-lru"

	"github.com/rocketscienceinc/stackfive-backend/internal/grid"
	"github.com/rocketscienceinc/stackfive-backend/internal/movegen"
	"github.com/rocketscienceinc/stackfive-backend/internal/rules"
)

const (
	winScore = 100000

	easyRandomChance = 0.8

	mediumTolerance    = 0.10
	mediumRandomChance = 0.3

	hardTolerance    = 0.05
	hardRandomChance = 0.1
	hardTopCount     = 2
)

// Rand is the subset of *math/rand.Rand the engine needs.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

type scoreKey struct {
	fingerprint uint64
	owner       grid.Owner
}

// Engine is not safe for concurrent use: the random source is shared by every call.
type Engine struct {
	rand  Rand
	cache *lru.Cache
}

// NewEngine builds an engine. A cacheSize of zero or less disables the evaluation cache.
func NewEngine(rand Rand, cacheSize int) (*Engine, error) {
	engine := &Engine{rand: rand}

	if cacheSize > 0 {
		cache, err := lru.New(cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create evaluation cache: %w", err)
		}
		engine.cache = cache
	}

	return engine, nil
}

type rankedMove struct {
	move  grid.Move
	value int
}

// BestMove returns the move the owner should play, or false when the owner has none.
// The board is never modified.
func (that *Engine) BestMove(board grid.Board, owner grid.Owner, difficulty Difficulty) (grid.Move, bool) {
	moves := movegen.Generate(board, owner)
	if len(moves) == 0 {
		return grid.Move{}, false
	}

	if difficulty == Easy && that.rand.Float64() < easyRandomChance {
		return moves[that.rand.Intn(len(moves))], true
	}

	work := board.Clone()

	if wins := winningMoves(&work, moves); len(wins) > 0 {
		return wins[that.rand.Intn(len(wins))], true
	}

	if blocks := that.blockingMoves(&work, moves, owner); len(blocks) > 0 {
		return blocks[that.rand.Intn(len(blocks))], true
	}

	ranked := that.rank(&work, moves, owner, difficulty.Depth())

	return that.pick(ranked, difficulty), true
}

// Evaluate is Score with the engine's cache in front of it.
func (that *Engine) Evaluate(board grid.Board, owner grid.Owner) int {
	if that.cache == nil {
		return Score(board, owner)
	}

	key := scoreKey{fingerprint: board.Fingerprint(), owner: owner}
	if value, ok := that.cache.Get(key); ok {
		return value.(int)
	}

	value := Score(board, owner)
	that.cache.Add(key, value)

	return value
}

// winningMoves keeps the moves that complete a line right away.
func winningMoves(board *grid.Board, moves []grid.Move) []grid.Move {
	var wins []grid.Move

	for _, move := range moves {
		board.Push(move.Block(nextID(*board)))
		if rules.CheckWin(*board, move.Owner) != nil {
			wins = append(wins, move)
		}
		board.Pop()
	}

	return wins
}

// blockingMoves is empty unless the opponent threatens an immediate win. Then it
// holds the moves after which the opponent has no winning reply.
func (that *Engine) blockingMoves(board *grid.Board, moves []grid.Move, owner grid.Owner) []grid.Move {
	opponent := owner.Opponent()
	if len(winningMoves(board, movegen.Generate(*board, opponent))) == 0 {
		return nil
	}

	var blocks []grid.Move
	for _, move := range moves {
		board.Push(move.Block(nextID(*board)))
		if len(winningMoves(board, movegen.Generate(*board, opponent))) == 0 {
			blocks = append(blocks, move)
		}
		board.Pop()
	}

	return blocks
}

// rank scores every root move with a full window so that near-best values are exact,
// then sorts them best first keeping generation order among equals.
func (that *Engine) rank(board *grid.Board, moves []grid.Move, owner grid.Owner, depth int) []rankedMove {
	ranked := make([]rankedMove, 0, len(moves))

	for _, move := range moves {
		board.Push(move.Block(nextID(*board)))

		var value int
		if rules.CheckWin(*board, owner) != nil {
			value = winScore + depth
		} else {
			value = that.minimax(board, depth-1, math.MinInt, math.MaxInt, owner.Opponent(), owner)
		}

		board.Pop()
		ranked = append(ranked, rankedMove{move: move, value: value})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].value > ranked[j].value
	})

	return ranked
}

func (that *Engine) minimax(board *grid.Board, depth, alpha, beta int, toMove, root grid.Owner) int {
	if depth <= 0 {
		return that.Evaluate(*board, root)
	}

	moves := movegen.Generate(*board, toMove)
	if len(moves) == 0 {
		return 0
	}

	maximizing := toMove == root
	best := math.MaxInt
	if maximizing {
		best = math.MinInt
	}

	for _, move := range moves {
		board.Push(move.Block(nextID(*board)))

		var value int
		switch {
		case rules.CheckWin(*board, toMove) == nil:
			value = that.minimax(board, depth-1, alpha, beta, toMove.Opponent(), root)
		case maximizing:
			value = winScore + depth
		default:
			value = -(winScore + depth)
		}

		board.Pop()

		if maximizing {
			best = max(best, value)
			alpha = max(alpha, best)
		} else {
			best = min(best, value)
			beta = min(beta, best)
		}

		if alpha >= beta {
			break
		}
	}

	return best
}

func (that *Engine) pick(ranked []rankedMove, difficulty Difficulty) grid.Move {
	var tolerance, chance float64
	top := len(ranked)

	switch difficulty {
	case Medium:
		tolerance, chance = mediumTolerance, mediumRandomChance
	case Hard:
		tolerance, chance = hardTolerance, hardRandomChance
		top = hardTopCount
	default:
		return ranked[0].move
	}

	best := ranked[0].value
	limit := math.Abs(float64(best)) * tolerance

	near := 0
	for near < len(ranked) && float64(best-ranked[near].value) <= limit {
		near++
	}

	if that.rand.Float64() < chance {
		pool := min(near, top)
		return ranked[that.rand.Intn(pool)].move
	}

	return ranked[0].move
}

func nextID(board grid.Board) int {
	return board.Len()/2 + 1
}
