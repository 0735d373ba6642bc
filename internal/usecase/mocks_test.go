package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rocketscienceinc/stackfive-backend/internal/apperror"
	"github.com/rocketscienceinc/stackfive-backend/internal/entity"
)

type mockPlayerRepo struct {
	mock.Mock
}

func newMockPlayerRepo(t *testing.T) *mockPlayerRepo {
	m := &mockPlayerRepo{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (that *mockPlayerRepo) CreateOrUpdate(ctx context.Context, player *entity.Player) error {
	args := that.Called(ctx, player)
	return args.Error(0)
}

func (that *mockPlayerRepo) GetByID(ctx context.Context, id string) (*entity.Player, error) {
	args := that.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

type mockGameRepo struct {
	mock.Mock
}

func newMockGameRepo(t *testing.T) *mockGameRepo {
	m := &mockGameRepo{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (that *mockGameRepo) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	args := that.Called(ctx, game)
	return args.Error(0)
}

func (that *mockGameRepo) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	args := that.Called(ctx, id)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameRepo) DeleteByID(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

func (that *mockGameRepo) AddWaiting(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

func (that *mockGameRepo) RemoveWaiting(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

func (that *mockGameRepo) GetWaitingID(ctx context.Context) (string, error) {
	args := that.Called(ctx)
	return args.String(0), args.Error(1)
}

type mockResultRepo struct {
	mock.Mock
}

func newMockResultRepo(t *testing.T) *mockResultRepo {
	m := &mockResultRepo{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (that *mockResultRepo) Save(ctx context.Context, result *entity.Result) error {
	args := that.Called(ctx, result)
	return args.Error(0)
}

func (that *mockResultRepo) GetByGameID(ctx context.Context, gameID string) (*entity.Result, error) {
	args := that.Called(ctx, gameID)
	result, _ := args.Get(0).(*entity.Result)
	return result, args.Error(1)
}

func (that *mockResultRepo) Leaderboard(ctx context.Context, limit int) ([]entity.Standing, error) {
	args := that.Called(ctx, limit)
	standings, _ := args.Get(0).([]entity.Standing)
	return standings, args.Error(1)
}

// memGameRepo stores games as JSON so every read is an independent snapshot, the
// way Redis hands them out. Reads are slowed down to widen race windows.
type memGameRepo struct {
	mu        sync.Mutex
	games     map[string][]byte
	readDelay time.Duration
}

func newMemGameRepo(readDelay time.Duration, games ...*entity.Game) *memGameRepo {
	repo := &memGameRepo{games: make(map[string][]byte), readDelay: readDelay}
	for _, game := range games {
		_ = repo.CreateOrUpdate(context.Background(), game)
	}

	return repo
}

func (that *memGameRepo) CreateOrUpdate(_ context.Context, game *entity.Game) error {
	body, err := json.Marshal(game)
	if err != nil {
		return err
	}

	that.mu.Lock()
	that.games[game.ID] = body
	that.mu.Unlock()

	return nil
}

func (that *memGameRepo) GetByID(_ context.Context, id string) (*entity.Game, error) {
	that.mu.Lock()
	body, ok := that.games[id]
	that.mu.Unlock()

	time.Sleep(that.readDelay)

	if !ok {
		return nil, fmt.Errorf("game %w", apperror.ErrNotFound)
	}

	var game entity.Game
	if err := json.Unmarshal(body, &game); err != nil {
		return nil, err
	}

	return &game, nil
}

func (that *memGameRepo) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[id]; !ok {
		return fmt.Errorf("game %w", apperror.ErrNotFound)
	}
	delete(that.games, id)

	return nil
}

func (that *memGameRepo) AddWaiting(context.Context, string) error { return nil }

func (that *memGameRepo) RemoveWaiting(context.Context, string) error { return nil }

func (that *memGameRepo) GetWaitingID(context.Context) (string, error) {
	return "", apperror.ErrNoActiveGames
}
