package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/stackfive-backend/internal/apperror"
	"github.com/rocketscienceinc/stackfive-backend/internal/entity"
	"github.com/rocketscienceinc/stackfive-backend/internal/grid"
	"github.com/rocketscienceinc/stackfive-backend/internal/search"
	"github.com/rocketscienceinc/stackfive-backend/internal/stackfive"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

var (
	ErrUnknownGameType = errors.New("unknown game type")
	ErrNoLegalMove     = errors.New("no legal move")
)

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error

	AddWaiting(ctx context.Context, id string) error
	RemoveWaiting(ctx context.Context, id string) error
	GetWaitingID(ctx context.Context) (string, error)
}

type resultRepo interface {
	Save(ctx context.Context, result *entity.Result) error
	GetByGameID(ctx context.Context, gameID string) (*entity.Result, error)
	Leaderboard(ctx context.Context, limit int) ([]entity.Standing, error)
}

type botEngine interface {
	BestMove(board grid.Board, owner grid.Owner, difficulty search.Difficulty) (grid.Move, bool)
}

type gameLock struct {
	mu   sync.Mutex
	refs int
}

type GameManager struct {
	logger     *slog.Logger
	playerRepo playerRepo
	gameRepo   gameRepo
	resultRepo resultRepo

	// every read-modify-write of a stored game runs under that game's lock
	locksMu   sync.Mutex
	gameLocks map[string]*gameLock

	// the engine's random source is not safe for concurrent use
	botMu             sync.Mutex
	bot               botEngine
	defaultDifficulty search.Difficulty

	now func() time.Time
}

func NewGameManager(
	logger *slog.Logger,
	playerRepo playerRepo,
	gameRepo gameRepo,
	resultRepo resultRepo,
	bot botEngine,
	defaultDifficulty search.Difficulty,
) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),

		playerRepo: playerRepo,
		gameRepo:   gameRepo,
		resultRepo: resultRepo,

		gameLocks: make(map[string]*gameLock),

		bot:               bot,
		defaultDifficulty: defaultDifficulty,

		now: time.Now,
	}
}

func (that *GameManager) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	if id == "" {
		player, err := that.createPlayer(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create new player: %w", err)
		}

		return player, nil
	}

	player, err := that.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	return player, nil
}

// GetOrCreateGame - returns the player's current game or starts a new one of the given type.
// Difficulty only matters for bot games; empty means the configured default.
func (that *GameManager) GetOrCreateGame(ctx context.Context, playerID, gameType, difficulty string) (*entity.Game, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed get player by id: %w", err)
	}

	if existingGame, ok := that.currentGame(ctx, player); ok {
		return existingGame, nil
	}

	switch gameType {
	case entity.PublicType:
		return that.createOrJoinPublicGame(ctx, player)
	case entity.PrivateType:
		return that.createGame(ctx, player, entity.PrivateType)
	case entity.WithBotType:
		return that.createBotGame(ctx, player, difficulty)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGameType, gameType)
	}
}

// CreateOrJoinPublicGame - seats the player in a waiting public game or opens a new one.
func (that *GameManager) CreateOrJoinPublicGame(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed get player by id: %w", err)
	}

	if existingGame, ok := that.currentGame(ctx, player); ok {
		return existingGame, nil
	}

	return that.createOrJoinPublicGame(ctx, player)
}

func (that *GameManager) JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed get player by id: %w", err)
	}

	return that.joinGame(ctx, gameID, player)
}

// MakeTurn - places a block for the player and, in bot games, lets the bot answer
// for as long as it is the bot's turn.
func (that *GameManager) MakeTurn(ctx context.Context, playerID string, x int, orientation grid.Orientation) (*entity.Game, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed get player by id: %w", err)
	}

	if player.GameID == "" {
		return nil, fmt.Errorf("player has no game: %w", apperror.ErrNotFound)
	}

	unlock := that.lockGame(player.GameID)
	defer unlock()

	game, err := that.getGameByID(ctx, player.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed get game by id: %w", err)
	}

	if game.PlayerByID(player.ID) == nil {
		return nil, apperror.ErrNotAPlayer
	}

	if _, err = stackfive.MakeTurn(game, player.Mark, x, orientation); err != nil {
		return game, fmt.Errorf("failed make turn: %w", err)
	}

	if err = that.playBot(game); err != nil {
		return nil, err
	}

	if err = that.updateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed update game: %w", err)
	}

	if game.IsFinished() {
		that.finishGame(ctx, game)
	}

	return game, nil
}

func (that *GameManager) GetGame(ctx context.Context, id string) (*entity.Game, error) {
	return that.getGameByID(ctx, id)
}

func (that *GameManager) GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed get player by id: %w", err)
	}

	if player.GameID == "" {
		return nil, fmt.Errorf("player has no game: %w", apperror.ErrNotFound)
	}

	return that.getGameByID(ctx, player.GameID)
}

// EndGame - removes the game. Leaving an ongoing game against a seated opponent
// counts as a resignation and is recorded.
func (that *GameManager) EndGame(ctx context.Context, gameID, playerID string) error {
	unlock := that.lockGame(gameID)
	defer unlock()

	game, err := that.getGameByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed get game by id: %w", err)
	}

	player := game.PlayerByID(playerID)
	if player == nil {
		return apperror.ErrNotAPlayer
	}

	wasFinished := game.IsFinished()
	if game.IsOngoing() {
		game.Winner = player.Mark.Opponent()
		game.Status = entity.StatusFinished
		game.Turn = grid.NoOwner
		that.recordResult(ctx, game)
	}

	if err = that.gameRepo.DeleteByID(ctx, game.ID); err != nil {
		return fmt.Errorf("failed delete game: %w", err)
	}

	// players of a finished game were freed when it finished and may sit in a new game by now
	if !wasFinished {
		that.releasePlayers(ctx, game)
	}

	that.logger.With("method", "EndGame").Info("game deleted", "game_id", game.ID)

	return nil
}

// SuggestMove - replays a client supplied history, rejecting any illegal block, and
// asks the bot for the owner's move.
func (that *GameManager) SuggestMove(history []grid.Block, owner grid.Owner, difficulty string) (grid.Move, error) {
	if owner != grid.White && owner != grid.Black {
		return grid.Move{}, fmt.Errorf("%w: %q", grid.ErrUnknownOwner, owner)
	}

	level, err := that.parseDifficulty(difficulty)
	if err != nil {
		return grid.Move{}, err
	}

	board, err := stackfive.Replay(history)
	if err != nil {
		return grid.Move{}, fmt.Errorf("failed to replay history: %w", err)
	}

	move, ok := that.bestMove(board, owner, level)
	if !ok {
		return grid.Move{}, ErrNoLegalMove
	}

	return move, nil
}

// GetResult - the archived outcome of a finished game, available after the game is deleted.
func (that *GameManager) GetResult(ctx context.Context, gameID string) (*entity.Result, error) {
	result, err := that.resultRepo.GetByGameID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	return result, nil
}

func (that *GameManager) Leaderboard(ctx context.Context, limit int) ([]entity.Standing, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	limit = min(limit, maxLeaderboardLimit)

	standings, err := that.resultRepo.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	return standings, nil
}

// currentGame - the game the player is seated in, if it still exists.
func (that *GameManager) currentGame(ctx context.Context, player *entity.Player) (*entity.Game, bool) {
	if player.GameID == "" {
		return nil, false
	}

	existingGame, err := that.getGameByID(ctx, player.GameID)
	if err != nil {
		that.logger.With("method", "currentGame").
			Warn("player points to a missing game", "player_id", player.ID, "game_id", player.GameID, "error", err)
		return nil, false
	}

	return existingGame, true
}

func (that *GameManager) createOrJoinPublicGame(ctx context.Context, player *entity.Player) (*entity.Game, error) {
	log := that.logger.With("method", "createOrJoinPublicGame")

	gameID, err := that.gameRepo.GetWaitingID(ctx)
	switch {
	case errors.Is(err, apperror.ErrNoActiveGames):
		return that.createGame(ctx, player, entity.PublicType)
	case err != nil:
		return nil, fmt.Errorf("failed get waiting game: %w", err)
	}

	joinedGame, err := that.joinGame(ctx, gameID, player)
	if err == nil {
		return joinedGame, nil
	}

	log.Warn("stale waiting game", "game_id", gameID, "error", err)
	if err = that.gameRepo.RemoveWaiting(ctx, gameID); err != nil {
		return nil, fmt.Errorf("failed remove waiting game: %w", err)
	}

	return that.createGame(ctx, player, entity.PublicType)
}

func (that *GameManager) joinGame(ctx context.Context, gameID string, player *entity.Player) (*entity.Game, error) {
	unlock := that.lockGame(gameID)
	defer unlock()

	existingGame, err := that.getGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed get game by id: %w", err)
	}

	if player.GameID == existingGame.ID {
		return existingGame, nil
	}

	if player.GameID != "" {
		return nil, fmt.Errorf("%w: player is in game %s", apperror.ErrGameAlreadyExists, player.GameID)
	}

	if !existingGame.IsWaiting() || len(existingGame.Players) != 1 {
		return nil, fmt.Errorf("%w: game id %s", apperror.ErrGameAlreadyExists, gameID)
	}

	player.GameID = existingGame.ID
	player.Mark = existingGame.Players[0].Mark.Opponent()
	if err = that.updatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed update player by id: %w", err)
	}

	existingGame.Status = entity.StatusOngoing
	existingGame.Players = append(existingGame.Players, player)
	if err = that.updateGame(ctx, existingGame); err != nil {
		return nil, fmt.Errorf("failed update game by id: %w", err)
	}

	if existingGame.IsPublic() {
		if err = that.gameRepo.RemoveWaiting(ctx, existingGame.ID); err != nil {
			return nil, fmt.Errorf("failed remove waiting game: %w", err)
		}
	}

	return existingGame, nil
}

func (that *GameManager) createGame(ctx context.Context, player *entity.Player, gameType string) (*entity.Game, error) {
	gameID := uuid.NewString()
	player.GameID = gameID
	player.Mark = grid.White

	if err := that.updatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed update player: %w", err)
	}

	newGame := entity.NewGame(gameID, gameType)
	newGame.Players = []*entity.Player{player}

	if err := that.gameRepo.CreateOrUpdate(ctx, newGame); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if newGame.IsPublic() {
		if err := that.gameRepo.AddWaiting(ctx, gameID); err != nil {
			return nil, fmt.Errorf("failed add waiting game: %w", err)
		}
	}

	return newGame, nil
}

// createBotGame - seats the player against the bot with random colours. A white
// bot opens the game.
func (that *GameManager) createBotGame(ctx context.Context, player *entity.Player, difficulty string) (*entity.Game, error) {
	level, err := that.parseDifficulty(difficulty)
	if err != nil {
		return nil, err
	}

	gameID := uuid.NewString()
	newGame := entity.NewGame(gameID, entity.WithBotType)
	newGame.Difficulty = level.String()
	newGame.Status = entity.StatusOngoing

	playerMark, botMark := newGame.GetRandomMarks()
	player.GameID = gameID
	player.Mark = playerMark
	newGame.Players = []*entity.Player{player, entity.NewBot(gameID, botMark)}

	if err = that.playBot(newGame); err != nil {
		return nil, err
	}

	if err = that.updatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed update player: %w", err)
	}

	if err = that.gameRepo.CreateOrUpdate(ctx, newGame); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	return newGame, nil
}

// playBot - lets the bot move while the game is running and it is the bot's turn.
// The bot moves again when the human has to pass.
func (that *GameManager) playBot(game *entity.Game) error {
	bot := game.Bot()
	if bot == nil {
		return nil
	}

	level, err := that.parseDifficulty(game.Difficulty)
	if err != nil {
		level = that.defaultDifficulty
	}

	for game.IsOngoing() && game.Turn == bot.Mark {
		move, ok := that.bestMove(game.Board(), bot.Mark, level)
		if !ok {
			return fmt.Errorf("bot failed to find a move: %w", ErrNoLegalMove)
		}

		if _, err = stackfive.MakeTurn(game, bot.Mark, move.X, move.Orientation); err != nil {
			return fmt.Errorf("bot failed to make turn: %w", err)
		}
	}

	return nil
}

// lockGame - takes the game's lock and returns its release. Entries are dropped
// once nobody holds or waits for them.
func (that *GameManager) lockGame(id string) func() {
	that.locksMu.Lock()
	lock, ok := that.gameLocks[id]
	if !ok {
		lock = &gameLock{}
		that.gameLocks[id] = lock
	}
	lock.refs++
	that.locksMu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		that.locksMu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(that.gameLocks, id)
		}
		that.locksMu.Unlock()
	}
}

func (that *GameManager) bestMove(board grid.Board, owner grid.Owner, difficulty search.Difficulty) (grid.Move, bool) {
	that.botMu.Lock()
	defer that.botMu.Unlock()

	return that.bot.BestMove(board, owner, difficulty)
}

func (that *GameManager) parseDifficulty(value string) (search.Difficulty, error) {
	if value == "" {
		return that.defaultDifficulty, nil
	}

	difficulty, err := search.ParseDifficulty(value)
	if err != nil {
		return "", fmt.Errorf("failed parse difficulty: %w", err)
	}

	return difficulty, nil
}

// finishGame - archives a finished game and frees its players; the game itself stays
// readable until it is ended.
func (that *GameManager) finishGame(ctx context.Context, game *entity.Game) {
	that.recordResult(ctx, game)
	that.releasePlayers(ctx, game)
}

func (that *GameManager) recordResult(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "recordResult")

	if err := that.resultRepo.Save(ctx, entity.NewResult(game, that.now())); err != nil {
		log.Error("failed to save result", "game_id", game.ID, "error", err)
		return
	}

	log.Info("game finished", "game_id", game.ID, "result", game.Result(), "blocks", len(game.History))
}

func (that *GameManager) releasePlayers(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "releasePlayers")

	for _, player := range game.Players {
		if player.IsBot() {
			continue
		}

		// the game keeps its seating for display
		released := *player
		released.Leave()
		if err := that.playerRepo.CreateOrUpdate(ctx, &released); err != nil {
			log.Error("failed to update player", "player_id", player.ID, "error", err)
		}
	}
}

func (that *GameManager) createPlayer(ctx context.Context) (*entity.Player, error) {
	player := &entity.Player{
		ID: uuid.NewString(),
	}

	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return player, nil
}

func (that *GameManager) getPlayerByID(ctx context.Context, id string) (*entity.Player, error) {
	player, err := that.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return player, nil
}

func (that *GameManager) getGameByID(ctx context.Context, id string) (*entity.Game, error) {
	existingGame, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return existingGame, nil
}

func (that *GameManager) updateGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	return nil
}

func (that *GameManager) updatePlayer(ctx context.Context, player *entity.Player) error {
	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}
