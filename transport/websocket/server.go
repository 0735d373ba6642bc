package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/stackfive-backend/internal/entity"
	"github.com/rocketscienceinc/stackfive-backend/internal/grid"
)

const (
	actionConnect   = "connect"
	actionGameNew   = "game:new"
	actionGameJoin  = "game:join"
	actionGameTurn  = "game:turn"
	actionGameLeave = "game:leave"
	actionError     = "error"

	defaultReconnectTimeout = 30 * time.Second
)

type gameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error)

	GetOrCreateGame(ctx context.Context, playerID, gameType, difficulty string) (*entity.Game, error)
	JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error)
	EndGame(ctx context.Context, gameID, playerID string) error

	MakeTurn(ctx context.Context, playerID string, x int, orientation grid.Orientation) (*entity.Game, error)
}

type handlerFunc func(ctx context.Context, message *Message, conn *connection) error

// Server pushes game updates to every seated player over a websocket.
type Server struct {
	logger      *slog.Logger
	gameUseCase gameUseCase
	upgrader    websocket.Upgrader

	// a player who stays away this long forfeits the current game
	reconnectTimeout time.Duration

	connectionsMutex sync.RWMutex
	connections      map[string]*connection

	disconnectedMutex   sync.Mutex
	disconnectedPlayers map[string]time.Time

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, gameUseCase gameUseCase) *Server {
	server := &Server{
		logger:      logger.With("component", "websocket"),
		gameUseCase: gameUseCase,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},

		reconnectTimeout: defaultReconnectTimeout,

		connections:         make(map[string]*connection),
		disconnectedPlayers: make(map[string]time.Time),

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionConnect] = server.handleConnect
	server.handlers[actionGameNew] = server.handleNewGame
	server.handlers[actionGameJoin] = server.handleJoinGame
	server.handlers[actionGameTurn] = server.handleGameTurn
	server.handlers[actionGameLeave] = server.handleGameLeave

	return server
}

// ServeHTTP - upgrades the connection to WebSocket and serves it until the client leaves.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := &connection{ws: ws}
	defer func() {
		that.handleDisconnect(conn)
		_ = ws.Close()
	}()

	log.Info("WebSocket connection established")

	if err = that.handleMessages(req.Context(), conn); err != nil {
		log.Error("error handling messages", "error", err)
	}
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, conn *connection) error {
	log := that.logger.With("method", "handleMessages")

	for {
		_, body, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(body, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			that.sendError(conn, actionError, "malformed message")
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			that.sendError(conn, message.Action, "unknown action")
			continue
		}

		if err = handler(ctx, &message, conn); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) register(playerID string, conn *connection) {
	that.connectionsMutex.Lock()
	that.connections[playerID] = conn
	that.connectionsMutex.Unlock()

	that.disconnectedMutex.Lock()
	delete(that.disconnectedPlayers, playerID)
	that.disconnectedMutex.Unlock()
}

func (that *Server) connectionOf(playerID string) (*connection, bool) {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	conn, ok := that.connections[playerID]
	return conn, ok
}

// handleDisconnect - forgets the connection and gives the player reconnectTimeout to come back.
func (that *Server) handleDisconnect(conn *connection) {
	log := that.logger.With("method", "handleDisconnect")

	that.connectionsMutex.Lock()
	var playerID string
	for id, candidate := range that.connections {
		if candidate == conn {
			playerID = id
			break
		}
	}
	if playerID != "" {
		delete(that.connections, playerID)
	}
	that.connectionsMutex.Unlock()

	if playerID == "" {
		return
	}

	disconnectedAt := time.Now()

	that.disconnectedMutex.Lock()
	that.disconnectedPlayers[playerID] = disconnectedAt
	that.disconnectedMutex.Unlock()

	log.Info("player disconnected", "player_id", playerID)

	time.AfterFunc(that.reconnectTimeout, func() {
		that.handleOpponentOut(context.Background(), playerID, disconnectedAt)
	})
}

// handleOpponentOut - ends the game of a player who did not reconnect in time.
func (that *Server) handleOpponentOut(ctx context.Context, playerID string, disconnectedAt time.Time) {
	log := that.logger.With("method", "handleOpponentOut")

	that.disconnectedMutex.Lock()
	at, ok := that.disconnectedPlayers[playerID]
	if ok && at.Equal(disconnectedAt) {
		delete(that.disconnectedPlayers, playerID)
	}
	that.disconnectedMutex.Unlock()

	if !ok || !at.Equal(disconnectedAt) {
		return
	}

	game, err := that.gameUseCase.GetGameByPlayerID(ctx, playerID)
	if err != nil {
		log.Info("player has no game to leave", "player_id", playerID, "error", err)
		return
	}

	if err = that.gameUseCase.EndGame(ctx, game.ID, playerID); err != nil {
		log.Error("failed to end game", "game_id", game.ID, "error", err)
		return
	}

	game.Status = gameStatusOpponentOut
	that.broadcast(actionGameLeave, game, playerID)

	log.Info("handled opponent out", "game_id", game.ID, "player_id", playerID)
}

// broadcast sends the game to every seated human except skipID.
func (that *Server) broadcast(action string, game *entity.Game, skipID string) {
	log := that.logger.With("method", "broadcast", "game_id", game.ID)

	for _, player := range game.Players {
		if player.IsBot() || player.ID == skipID {
			continue
		}

		conn, ok := that.connectionOf(player.ID)
		if !ok {
			log.Warn("connection not found for player", "player_id", player.ID)
			continue
		}

		if err := conn.send(action, Payload{Player: player, Game: game}); err != nil {
			log.Error("failed to send game update", "player_id", player.ID, "error", err)
		}
	}
}

func (that *Server) sendError(conn *connection, action, message string) {
	if err := conn.send(action, Payload{Error: message}); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		that.logger.With("method", "sendError").Error("failed to send error response", "error", err)
	}
}
