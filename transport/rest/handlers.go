package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/stackfive-backend/internal/apperror"
	"github.com/rocketscienceinc/stackfive-backend/internal/entity"
	"github.com/rocketscienceinc/stackfive-backend/internal/grid"
	"github.com/rocketscienceinc/stackfive-backend/internal/search"
	"github.com/rocketscienceinc/stackfive-backend/internal/usecase"
)

// PlayerIDHeader identifies the calling player on game requests.
const PlayerIDHeader = "X-Player-ID"

var (
	errBadRequest      = errors.New("bad request")
	errMissingPlayerID = fmt.Errorf("%w: missing %s header", errBadRequest, PlayerIDHeader)
)

type gameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error)

	GetOrCreateGame(ctx context.Context, playerID, gameType, difficulty string) (*entity.Game, error)
	JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	GetGame(ctx context.Context, id string) (*entity.Game, error)
	GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error)
	EndGame(ctx context.Context, gameID, playerID string) error

	MakeTurn(ctx context.Context, playerID string, x int, orientation grid.Orientation) (*entity.Game, error)
	SuggestMove(history []grid.Block, owner grid.Owner, difficulty string) (grid.Move, error)

	GetResult(ctx context.Context, gameID string) (*entity.Result, error)
	Leaderboard(ctx context.Context, limit int) ([]entity.Standing, error)
}

type createGameRequest struct {
	Type       string `json:"type"`
	Difficulty string `json:"difficulty"`
}

type turnRequest struct {
	X           int              `json:"x"`
	Orientation grid.Orientation `json:"orientation"`
}

type suggestRequest struct {
	History    []grid.Block `json:"history"`
	Owner      grid.Owner   `json:"owner"`
	Difficulty string       `json:"difficulty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	logger  *slog.Logger
	useCase gameUseCase
}

func (that *handlers) createPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := that.useCase.GetOrCreatePlayer(r.Context(), r.Header.Get(PlayerIDHeader))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusCreated, player)
}

func (that *handlers) playerGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.useCase.GetGameByPlayerID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *handlers) createGame(w http.ResponseWriter, r *http.Request) {
	playerID, err := requirePlayerID(r)
	if err != nil {
		that.writeError(w, err)
		return
	}

	var request createGameRequest
	if err = decode(r, &request); err != nil {
		that.writeError(w, err)
		return
	}

	if request.Type == "" {
		request.Type = entity.PublicType
	}

	game, err := that.useCase.GetOrCreateGame(r.Context(), playerID, request.Type, request.Difficulty)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *handlers) getGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.useCase.GetGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *handlers) gameResult(w http.ResponseWriter, r *http.Request) {
	result, err := that.useCase.GetResult(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, result)
}

func (that *handlers) joinGame(w http.ResponseWriter, r *http.Request) {
	playerID, err := requirePlayerID(r)
	if err != nil {
		that.writeError(w, err)
		return
	}

	game, err := that.useCase.JoinGameByID(r.Context(), chi.URLParam(r, "id"), playerID)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *handlers) makeTurn(w http.ResponseWriter, r *http.Request) {
	playerID, err := requirePlayerID(r)
	if err != nil {
		that.writeError(w, err)
		return
	}

	var request turnRequest
	if err = decode(r, &request); err != nil {
		that.writeError(w, err)
		return
	}

	gameID := chi.URLParam(r, "id")
	current, err := that.useCase.GetGameByPlayerID(r.Context(), playerID)
	if err != nil {
		that.writeError(w, err)
		return
	}

	if current.ID != gameID {
		that.writeError(w, fmt.Errorf("%w: player is not seated in game %s", apperror.ErrNotAPlayer, gameID))
		return
	}

	game, err := that.useCase.MakeTurn(r.Context(), playerID, request.X, request.Orientation)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *handlers) endGame(w http.ResponseWriter, r *http.Request) {
	playerID, err := requirePlayerID(r)
	if err != nil {
		that.writeError(w, err)
		return
	}

	if err = that.useCase.EndGame(r.Context(), chi.URLParam(r, "id"), playerID); err != nil {
		that.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *handlers) suggestMove(w http.ResponseWriter, r *http.Request) {
	var request suggestRequest
	if err := decode(r, &request); err != nil {
		that.writeError(w, err)
		return
	}

	move, err := that.useCase.SuggestMove(request.History, request.Owner, request.Difficulty)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, move)
}

func (that *handlers) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			that.writeError(w, fmt.Errorf("%w: limit must be a number", errBadRequest))
			return
		}
		limit = parsed
	}

	standings, err := that.useCase.Leaderboard(r.Context(), limit)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, standings)
}

func requirePlayerID(r *http.Request) (string, error) {
	playerID := r.Header.Get(PlayerIDHeader)
	if playerID == "" {
		return "", errMissingPlayerID
	}

	return playerID, nil
}

func decode(r *http.Request, target any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}

	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}

	return nil
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrNotAPlayer):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrGameFinished),
		errors.Is(err, apperror.ErrGameIsNotStarted),
		errors.Is(err, apperror.ErrGameAlreadyExists),
		errors.Is(err, apperror.ErrNoBlocksLeft),
		errors.Is(err, apperror.ErrNoActiveGames):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrIllegalPlacement),
		errors.Is(err, apperror.ErrInvalidHistory),
		errors.Is(err, usecase.ErrNoLegalMove):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest),
		errors.Is(err, usecase.ErrUnknownGameType),
		errors.Is(err, search.ErrUnknownDifficulty),
		errors.Is(err, grid.ErrUnknownOwner),
		errors.Is(err, grid.ErrUnknownOrientation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (that *handlers) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	message := err.Error()

	if status == http.StatusInternalServerError {
		that.logger.With("method", "writeError").Error("request failed", "error", err)
		message = "Internal Server Error"
	}

	that.writeJSON(w, status, errorResponse{Error: message})
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.With("method", "writeJSON").Error("failed to encode response", "error", err)
	}
}
