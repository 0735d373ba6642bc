package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/stackfive-backend/internal/entity"
)

const (
	gameStatusOpponentOut = "opponent_out"
	gameStatusLeave       = "leave"
)

func decodePayload(message *Message) (Payload, error) {
	var payload Payload
	if len(message.Payload) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return payload, nil
}

func (that *Server) handleConnect(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleConnect")

	payloadReq, err := decodePayload(msg)
	if err != nil {
		that.sendError(conn, msg.Action, "malformed payload")
		return err
	}

	var playerID string
	if payloadReq.Player != nil {
		playerID = payloadReq.Player.ID
	}

	player, err := that.gameUseCase.GetOrCreatePlayer(ctx, playerID)
	if err != nil {
		that.sendError(conn, msg.Action, "failed to create a new player")
		return fmt.Errorf("failed to get or create player: %w", err)
	}

	that.register(player.ID, conn)

	payloadResp := Payload{Player: player}

	if player.GameID != "" {
		game, gameErr := that.gameUseCase.GetGameByPlayerID(ctx, player.ID)
		if gameErr != nil {
			log.Warn("failed to get the game", "game_id", player.GameID, "error", gameErr)
		} else {
			payloadResp.Game = game
		}
	}

	if err = conn.send(msg.Action, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("successfully connected player", "player_id", player.ID)

	return nil
}

func (that *Server) handleNewGame(ctx context.Context, msg *Message, conn *connection) error {
	payloadReq, err := decodePayload(msg)
	if err != nil {
		that.sendError(conn, msg.Action, "malformed payload")
		return err
	}

	if payloadReq.Player == nil {
		that.sendError(conn, msg.Action, "Player is required")
		return nil
	}

	gameType := entity.PublicType
	if payloadReq.Game != nil && payloadReq.Game.Type != "" {
		gameType = payloadReq.Game.Type
	}

	that.register(payloadReq.Player.ID, conn)

	game, err := that.gameUseCase.GetOrCreateGame(ctx, payloadReq.Player.ID, gameType, payloadReq.Difficulty)
	if err != nil {
		that.sendError(conn, msg.Action, err.Error())
		return fmt.Errorf("failed to create game: %w", err)
	}

	that.broadcast(msg.Action, game, "")

	return nil
}

func (that *Server) handleJoinGame(ctx context.Context, msg *Message, conn *connection) error {
	payloadReq, err := decodePayload(msg)
	if err != nil {
		that.sendError(conn, msg.Action, "malformed payload")
		return err
	}

	if payloadReq.Player == nil {
		that.sendError(conn, msg.Action, "Player is required")
		return nil
	}

	if payloadReq.Game == nil || payloadReq.Game.ID == "" {
		that.sendError(conn, msg.Action, "Game is required")
		return nil
	}

	that.register(payloadReq.Player.ID, conn)

	game, err := that.gameUseCase.JoinGameByID(ctx, payloadReq.Game.ID, payloadReq.Player.ID)
	if err != nil {
		that.sendError(conn, msg.Action, fmt.Sprintf("game %s: %v", payloadReq.Game.ID, err))
		return fmt.Errorf("failed to join game: %w", err)
	}

	that.broadcast(msg.Action, game, "")

	return nil
}

func (that *Server) handleGameTurn(ctx context.Context, msg *Message, conn *connection) error {
	payloadReq, err := decodePayload(msg)
	if err != nil {
		that.sendError(conn, msg.Action, "malformed payload")
		return err
	}

	if payloadReq.Player == nil {
		that.sendError(conn, msg.Action, "Player is required")
		return nil
	}

	if payloadReq.Turn == nil {
		that.sendError(conn, msg.Action, "Turn is required")
		return nil
	}

	that.register(payloadReq.Player.ID, conn)

	game, err := that.gameUseCase.MakeTurn(ctx, payloadReq.Player.ID, payloadReq.Turn.X, payloadReq.Turn.Orientation)
	if err != nil {
		// a rejected move is the client's problem, not ours
		that.sendError(conn, msg.Action, err.Error())
		return nil
	}

	that.broadcast(msg.Action, game, "")

	return nil
}

func (that *Server) handleGameLeave(ctx context.Context, msg *Message, conn *connection) error {
	payloadReq, err := decodePayload(msg)
	if err != nil {
		that.sendError(conn, msg.Action, "malformed payload")
		return err
	}

	if payloadReq.Player == nil {
		that.sendError(conn, msg.Action, "Player is required")
		return nil
	}

	that.register(payloadReq.Player.ID, conn)

	game, err := that.gameUseCase.GetGameByPlayerID(ctx, payloadReq.Player.ID)
	if err != nil {
		that.sendError(conn, msg.Action, "game doesn't exist")
		return fmt.Errorf("failed to find game: %w", err)
	}

	if err = that.gameUseCase.EndGame(ctx, game.ID, payloadReq.Player.ID); err != nil {
		that.sendError(conn, msg.Action, "failed to leave the game")
		return fmt.Errorf("failed to end game: %w", err)
	}

	game.Status = gameStatusLeave
	that.broadcast(msg.Action, game, "")

	return nil
}
