package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	logger  *slog.Logger
	handler http.Handler
}

func New(logger *slog.Logger, handler http.Handler) *Server {
	return &Server{
		logger:  logger.With("component", "rest"),
		handler: handler,
	}
}

// NewRouter wires every route of the HTTP API.
func NewRouter(logger *slog.Logger, useCase gameUseCase) chi.Router {
	h := &handlers{
		logger:  logger.With("component", "rest"),
		useCase: useCase,
	}
	ping := NewPingHandler()

	r := chi.NewRouter()
	r.Get("/ping", ping.PingHandler)

	r.Post("/players", h.createPlayer)
	r.Get("/players/{id}/game", h.playerGame)

	r.Post("/games", h.createGame)
	r.Route("/games/{id}", func(r chi.Router) {
		r.Get("/", h.getGame)
		r.Delete("/", h.endGame)
		r.Post("/join", h.joinGame)
		r.Post("/turns", h.makeTurn)
		r.Get("/result", h.gameResult)
	})

	r.Post("/ai/move", h.suggestMove)
	r.Get("/leaderboard", h.leaderboard)

	return r
}

// Start serves until ctx is cancelled, then shuts the server down gracefully.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	that.logger.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}
