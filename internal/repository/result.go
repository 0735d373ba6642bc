package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/stackfive-backend/internal/apperror"
	"github.com/rocketscienceinc/stackfive-backend/internal/entity"
)

var ErrResultNotFound = fmt.Errorf("result %w", apperror.ErrNotFound)

type ResultRepository interface {
	Save(ctx context.Context, result *entity.Result) error
	GetByGameID(ctx context.Context, gameID string) (*entity.Result, error)
	Leaderboard(ctx context.Context, limit int) ([]entity.Standing, error)
}

type resultRepository struct {
	conn *sql.DB
}

func NewResultRepository(conn *sql.DB) ResultRepository {
	return &resultRepository{
		conn: conn,
	}
}

// Save - stores the result; saving the same game twice keeps the latest row.
func (that *resultRepository) Save(ctx context.Context, result *entity.Result) error {
	query := `INSERT OR REPLACE INTO results
		(game_id, game_type, white_id, black_id, winner, blocks, history, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	history, err := json.Marshal(result.History)
	if err != nil {
		return fmt.Errorf("can't marshal history: %w", err)
	}

	_, err = that.conn.ExecContext(ctx, query,
		result.GameID,
		result.Type,
		result.WhiteID,
		result.BlackID,
		result.Winner,
		len(result.History),
		string(history),
		result.FinishedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("can't save result: %w", err)
	}

	return nil
}

func (that *resultRepository) GetByGameID(ctx context.Context, gameID string) (*entity.Result, error) {
	query := `SELECT game_id, game_type, white_id, black_id, winner, history, finished_at
		FROM results WHERE game_id = ?`

	var (
		result     entity.Result
		history    string
		finishedAt int64
	)

	err := that.conn.QueryRowContext(ctx, query, gameID).Scan(
		&result.GameID,
		&result.Type,
		&result.WhiteID,
		&result.BlackID,
		&result.Winner,
		&history,
		&finishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find result: %w", err)
	}

	if err = json.Unmarshal([]byte(history), &result.History); err != nil {
		return nil, fmt.Errorf("can't unmarshal history: %w", err)
	}
	result.FinishedAt = time.Unix(finishedAt, 0).UTC()

	return &result, nil
}

// Leaderboard - ranks human players by wins, then draws. Bots are left out.
func (that *resultRepository) Leaderboard(ctx context.Context, limit int) ([]entity.Standing, error) {
	query := `SELECT player_id,
			SUM(CASE WHEN outcome = 'win' THEN 1 ELSE 0 END) AS wins,
			SUM(CASE WHEN outcome = 'loss' THEN 1 ELSE 0 END) AS losses,
			SUM(CASE WHEN outcome = 'draw' THEN 1 ELSE 0 END) AS draws,
			COUNT(*) AS games
		FROM (
			SELECT white_id AS player_id,
				CASE winner WHEN 'white' THEN 'win' WHEN 'draw' THEN 'draw' ELSE 'loss' END AS outcome
			FROM results
			UNION ALL
			SELECT black_id AS player_id,
				CASE winner WHEN 'black' THEN 'win' WHEN 'draw' THEN 'draw' ELSE 'loss' END AS outcome
			FROM results
		)
		WHERE player_id != '' AND player_id NOT LIKE 'bot:%'
		GROUP BY player_id
		ORDER BY wins DESC, draws DESC, player_id ASC
		LIMIT ?`

	rows, err := that.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("can't query leaderboard: %w", err)
	}
	defer rows.Close()

	standings := []entity.Standing{}
	for rows.Next() {
		var standing entity.Standing
		if err = rows.Scan(&standing.PlayerID, &standing.Wins, &standing.Losses, &standing.Draws, &standing.Games); err != nil {
			return nil, fmt.Errorf("can't scan standing: %w", err)
		}
		standings = append(standings, standing)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't read leaderboard: %w", err)
	}

	return standings, nil
}
