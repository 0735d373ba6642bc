package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/stackfive-backend/internal/apperror"
	"github.com/rocketscienceinc/stackfive-backend/internal/entity"
	"github.com/rocketscienceinc/stackfive-backend/internal/grid"
	"github.com/rocketscienceinc/stackfive-backend/internal/search"
	"github.com/rocketscienceinc/stackfive-backend/internal/usecase"
)

type mockGameUseCase struct {
	mock.Mock
}

func (that *mockGameUseCase) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	args := that.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

func (that *mockGameUseCase) GetOrCreateGame(ctx context.Context, playerID, gameType, difficulty string) (*entity.Game, error) {
	args := that.Called(ctx, playerID, gameType, difficulty)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameUseCase) JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	args := that.Called(ctx, gameID, playerID)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameUseCase) GetGame(ctx context.Context, id string) (*entity.Game, error) {
	args := that.Called(ctx, id)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameUseCase) GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error) {
	args := that.Called(ctx, playerID)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameUseCase) EndGame(ctx context.Context, gameID, playerID string) error {
	args := that.Called(ctx, gameID, playerID)
	return args.Error(0)
}

func (that *mockGameUseCase) MakeTurn(ctx context.Context, playerID string, x int, orientation grid.Orientation) (*entity.Game, error) {
	args := that.Called(ctx, playerID, x, orientation)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameUseCase) SuggestMove(history []grid.Block, owner grid.Owner, difficulty string) (grid.Move, error) {
	args := that.Called(history, owner, difficulty)
	return args.Get(0).(grid.Move), args.Error(1)
}

func (that *mockGameUseCase) GetResult(ctx context.Context, gameID string) (*entity.Result, error) {
	args := that.Called(ctx, gameID)
	result, _ := args.Get(0).(*entity.Result)
	return result, args.Error(1)
}

func (that *mockGameUseCase) Leaderboard(ctx context.Context, limit int) ([]entity.Standing, error) {
	args := that.Called(ctx, limit)
	standings, _ := args.Get(0).([]entity.Standing)
	return standings, args.Error(1)
}

func newTestRouter(t *testing.T) (http.Handler, *mockGameUseCase) {
	t.Helper()

	useCase := &mockGameUseCase{}
	useCase.Test(t)
	t.Cleanup(func() { useCase.AssertExpectations(t) })

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	return NewRouter(logger, useCase), useCase
}

func serve(handler http.Handler, method, target, playerID, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if playerID != "" {
		req.Header.Set(PlayerIDHeader, playerID)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func ongoingGame() *entity.Game {
	game := entity.NewGame("g1", entity.PrivateType)
	game.Status = entity.StatusOngoing
	game.Players = []*entity.Player{
		{ID: "p1", Mark: grid.White, GameID: "g1"},
		{ID: "p2", Mark: grid.Black, GameID: "g1"},
	}

	return game
}

func TestPing(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/ping", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestHandlers_CreatePlayer(t *testing.T) {
	router, useCase := newTestRouter(t)

	// Given: an unknown caller
	useCase.On("GetOrCreatePlayer", mock.Anything, "").
		Return(&entity.Player{ID: "p1"}, nil).Once()

	// When: the caller registers
	rec := serve(router, http.MethodPost, "/players", "", "")

	// Then: a player is returned
	require.Equal(t, http.StatusCreated, rec.Code)

	var player entity.Player
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&player))
	assert.Equal(t, "p1", player.ID)
}

func TestHandlers_CreateGame(t *testing.T) {
	t.Run("Bot game with difficulty", func(t *testing.T) {
		router, useCase := newTestRouter(t)

		game := entity.NewGame("g1", entity.WithBotType)
		useCase.On("GetOrCreateGame", mock.Anything, "p1", entity.WithBotType, "hard").
			Return(game, nil).Once()

		rec := serve(router, http.MethodPost, "/games", "p1", `{"type":"bot","difficulty":"hard"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"id":"g1"`)
	})

	t.Run("Empty body creates a public game", func(t *testing.T) {
		router, useCase := newTestRouter(t)

		useCase.On("GetOrCreateGame", mock.Anything, "p1", entity.PublicType, "").
			Return(entity.NewGame("g2", entity.PublicType), nil).Once()

		rec := serve(router, http.MethodPost, "/games", "p1", "")

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Missing player header", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := serve(router, http.MethodPost, "/games", "", `{"type":"bot"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Unknown difficulty", func(t *testing.T) {
		router, useCase := newTestRouter(t)

		useCase.On("GetOrCreateGame", mock.Anything, "p1", entity.WithBotType, "impossible").
			Return(nil, fmt.Errorf("%w: %q", search.ErrUnknownDifficulty, "impossible")).Once()

		rec := serve(router, http.MethodPost, "/games", "p1", `{"type":"bot","difficulty":"impossible"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandlers_GetGame(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		router, useCase := newTestRouter(t)

		useCase.On("GetGame", mock.Anything, "g1").Return(ongoingGame(), nil).Once()

		rec := serve(router, http.MethodGet, "/games/g1", "", "")

		require.Equal(t, http.StatusOK, rec.Code)

		var game entity.Game
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&game))
		assert.Equal(t, "g1", game.ID)
		assert.Equal(t, grid.White, game.Turn)
	})

	t.Run("Not found", func(t *testing.T) {
		router, useCase := newTestRouter(t)

		useCase.On("GetGame", mock.Anything, "nope").
			Return(nil, fmt.Errorf("game %w", apperror.ErrNotFound)).Once()

		rec := serve(router, http.MethodGet, "/games/nope", "", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "not found")
	})
}

func TestHandlers_JoinGame(t *testing.T) {
	router, useCase := newTestRouter(t)

	useCase.On("JoinGameByID", mock.Anything, "g1", "p2").Return(ongoingGame(), nil).Once()

	rec := serve(router, http.MethodPost, "/games/g1/join", "p2", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlers_MakeTurn(t *testing.T) {
	t.Run("Accepted", func(t *testing.T) {
		router, useCase := newTestRouter(t)

		// Given: p1 sits in g1
		game := ongoingGame()
		useCase.On("GetGameByPlayerID", mock.Anything, "p1").Return(game, nil).Once()
		useCase.On("MakeTurn", mock.Anything, "p1", 0, grid.Horizontal).Return(game, nil).Once()

		// When: p1 places a horizontal block at column 0
		rec := serve(router, http.MethodPost, "/games/g1/turns", "p1", `{"x":0,"orientation":"horizontal"}`)

		// Then: the game is returned
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Other game", func(t *testing.T) {
		router, useCase := newTestRouter(t)

		useCase.On("GetGameByPlayerID", mock.Anything, "p1").Return(ongoingGame(), nil).Once()

		rec := serve(router, http.MethodPost, "/games/g9/turns", "p1", `{"x":0}`)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Unknown orientation", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := serve(router, http.MethodPost, "/games/g1/turns", "p1", `{"x":0,"orientation":"diagonal"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Rejected moves", func(t *testing.T) {
		tests := []struct {
			name   string
			err    error
			status int
		}{
			{"Not your turn", apperror.ErrNotYourTurn, http.StatusConflict},
			{"Finished", apperror.ErrGameFinished, http.StatusConflict},
			{"No blocks left", apperror.ErrNoBlocksLeft, http.StatusConflict},
			{"Illegal placement", fmt.Errorf("%w: no support", apperror.ErrIllegalPlacement), http.StatusUnprocessableEntity},
			{"Storage failure", fmt.Errorf("redis is down"), http.StatusInternalServerError},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				router, useCase := newTestRouter(t)

				useCase.On("GetGameByPlayerID", mock.Anything, "p1").Return(ongoingGame(), nil).Once()
				useCase.On("MakeTurn", mock.Anything, "p1", 3, grid.Vertical).Return(nil, tt.err).Once()

				rec := serve(router, http.MethodPost, "/games/g1/turns", "p1", `{"x":3,"orientation":"vertical"}`)

				assert.Equal(t, tt.status, rec.Code)
			})
		}
	})
}

func TestHandlers_EndGame(t *testing.T) {
	t.Run("Deleted", func(t *testing.T) {
		router, useCase := newTestRouter(t)

		useCase.On("EndGame", mock.Anything, "g1", "p1").Return(nil).Once()

		rec := serve(router, http.MethodDelete, "/games/g1", "p1", "")

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("Stranger", func(t *testing.T) {
		router, useCase := newTestRouter(t)

		useCase.On("EndGame", mock.Anything, "g1", "p9").Return(apperror.ErrNotAPlayer).Once()

		rec := serve(router, http.MethodDelete, "/games/g1", "p9", "")

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestHandlers_SuggestMove(t *testing.T) {
	t.Run("Suggests a move", func(t *testing.T) {
		router, useCase := newTestRouter(t)

		// Given: a one block history
		history := []grid.Block{{ID: 1, X: 0, Y: 0, Orientation: grid.Vertical, Owner: grid.White}}
		move := grid.Move{X: 1, Y: 0, Orientation: grid.Vertical, Owner: grid.Black}
		useCase.On("SuggestMove", history, grid.Black, "easy").Return(move, nil).Once()

		// When: black asks for advice
		body := `{"history":[{"id":1,"x":0,"y":0,"orientation":"vertical","owner":"white"}],"owner":"black","difficulty":"easy"}`
		rec := serve(router, http.MethodPost, "/ai/move", "", body)

		// Then: the move comes back as JSON
		require.Equal(t, http.StatusOK, rec.Code)

		var got grid.Move
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, move, got)
	})

	t.Run("Invalid history", func(t *testing.T) {
		router, useCase := newTestRouter(t)

		useCase.On("SuggestMove", mock.Anything, grid.White, "").
			Return(grid.Move{}, fmt.Errorf("%w: block 1 floats", apperror.ErrInvalidHistory)).Once()

		rec := serve(router, http.MethodPost, "/ai/move", "", `{"history":[],"owner":"white"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("No legal move", func(t *testing.T) {
		router, useCase := newTestRouter(t)

		useCase.On("SuggestMove", mock.Anything, grid.Black, "").
			Return(grid.Move{}, usecase.ErrNoLegalMove).Once()

		rec := serve(router, http.MethodPost, "/ai/move", "", `{"owner":"black"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("Unknown owner", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := serve(router, http.MethodPost, "/ai/move", "", `{"owner":"green"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandlers_GameResult(t *testing.T) {
	t.Run("Finished game", func(t *testing.T) {
		router, useCase := newTestRouter(t)

		// Given: g1 was won by white
		useCase.On("GetResult", mock.Anything, "g1").
			Return(&entity.Result{GameID: "g1", WhiteID: "p1", BlackID: "p2", Winner: "white"}, nil).Once()

		// When: its result is requested
		rec := serve(router, http.MethodGet, "/games/g1/result", "", "")

		// Then: the archived outcome comes back
		require.Equal(t, http.StatusOK, rec.Code)

		var result entity.Result
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
		assert.Equal(t, "white", result.Winner)
	})

	t.Run("Not archived", func(t *testing.T) {
		router, useCase := newTestRouter(t)

		useCase.On("GetResult", mock.Anything, "g2").
			Return(nil, fmt.Errorf("result %w", apperror.ErrNotFound)).Once()

		rec := serve(router, http.MethodGet, "/games/g2/result", "", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandlers_Leaderboard(t *testing.T) {
	t.Run("Limit is passed through", func(t *testing.T) {
		router, useCase := newTestRouter(t)

		standings := []entity.Standing{{PlayerID: "p1", Wins: 2, Games: 2}}
		useCase.On("Leaderboard", mock.Anything, 5).Return(standings, nil).Once()

		rec := serve(router, http.MethodGet, "/leaderboard?limit=5", "", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"p1"`)
	})

	t.Run("Bad limit", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := serve(router, http.MethodGet, "/leaderboard?limit=ten", "", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
