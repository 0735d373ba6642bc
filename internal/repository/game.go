package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/stackfive-backend/internal/apperror"
	"github.com/rocketscienceinc/stackfive-backend/internal/entity"
)

// publicGamesKey holds the ids of public games waiting for a second player.
const publicGamesKey = "games:public"

var ErrGameNotFound = fmt.Errorf("game %w", apperror.ErrNotFound)

type GameRepository interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error

	AddWaiting(ctx context.Context, id string) error
	RemoveWaiting(ctx context.Context, id string) error
	GetWaitingID(ctx context.Context) (string, error)
}

type dbGame struct {
	client *redis.Client
}

func NewGameRepository(client *redis.Client) GameRepository {
	return &dbGame{
		client: client,
	}
}

func gameKey(id string) string {
	return "game:" + id
}

func (that *dbGame) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	err = that.client.Set(ctx, gameKey(game.ID), gameJSON, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Result()

	if errors.Is(err, redis.Nil) {
		return &entity.Game{}, ErrGameNotFound
	}

	if err != nil {
		return &entity.Game{}, fmt.Errorf("failed to get game by id: %w", err)
	}

	var existingGame entity.Game
	if err = json.Unmarshal([]byte(response), &existingGame); err != nil {
		return &entity.Game{}, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existingGame, nil
}

// DeleteByID - removes the game and its entry in the waiting set.
func (that *dbGame) DeleteByID(ctx context.Context, id string) error {
	pipe := that.client.TxPipeline()
	deleted := pipe.Del(ctx, gameKey(id))
	pipe.SRem(ctx, publicGamesKey, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete game by id: %w", err)
	}

	if deleted.Val() == 0 {
		return ErrGameNotFound
	}

	return nil
}

func (that *dbGame) AddWaiting(ctx context.Context, id string) error {
	if err := that.client.SAdd(ctx, publicGamesKey, id).Err(); err != nil {
		return fmt.Errorf("failed to add waiting game: %w", err)
	}

	return nil
}

func (that *dbGame) RemoveWaiting(ctx context.Context, id string) error {
	if err := that.client.SRem(ctx, publicGamesKey, id).Err(); err != nil {
		return fmt.Errorf("failed to remove waiting game: %w", err)
	}

	return nil
}

// GetWaitingID - returns a random public game that waits for a second player.
func (that *dbGame) GetWaitingID(ctx context.Context) (string, error) {
	id, err := that.client.SRandMember(ctx, publicGamesKey).Result()

	if errors.Is(err, redis.Nil) {
		return "", apperror.ErrNoActiveGames
	}

	if err != nil {
		return "", fmt.Errorf("failed to get waiting game: %w", err)
	}

	return id, nil
}
