// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mkleist/uno/internal/uno"
)

// SaveGameSnapshot upserts the engine memento for a live game so it can be
// restored after a restart.
func SaveGameSnapshot(ctx context.Context, gameID uuid.UUID, memento uno.GameMemento) error {
	data, err := json.Marshal(memento)
	if err != nil {
		return fmt.Errorf("failed to marshal game memento: %w", err)
	}

	q := `
		INSERT INTO games (id, status, snapshot)
		VALUES ($1, 'in_progress', $2)
		ON CONFLICT (id) DO UPDATE SET status = 'in_progress', snapshot = $2
	`
	err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q, gameID, data)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to upsert game snapshot: %w", err)
	}
	return nil
}

// LoadGameSnapshot fetches the stored memento for a game.
func LoadGameSnapshot(ctx context.Context, gameID uuid.UUID) (uno.GameMemento, error) {
	var memento uno.GameMemento
	var data []byte

	q := `SELECT snapshot FROM games WHERE id = $1`
	if err := DB.QueryRow(ctx, q, gameID).Scan(&data); err != nil {
		return memento, fmt.Errorf("failed to load game snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &memento); err != nil {
		return memento, fmt.Errorf("failed to unmarshal game snapshot: %w", err)
	}
	return memento, nil
}

// RecordGameResults persists the final outcome of a game and bumps each
// participant's aggregate stats.
func RecordGameResults(ctx context.Context, gameID uuid.UUID, winnerID uuid.UUID, scores map[string]int) error {
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertGame := `
			INSERT INTO games (id, status)
			VALUES ($1, 'completed')
			ON CONFLICT (id) DO UPDATE SET status = 'completed', snapshot = NULL
		`
		if _, e := tx.Exec(ctx, upsertGame, gameID); e != nil {
			return e
		}

		for playerStr, score := range scores {
			playerID, parseErr := uuid.Parse(playerStr)
			if parseErr != nil {
				return fmt.Errorf("invalid player id %q in results: %w", playerStr, parseErr)
			}
			didWin := playerID == winnerID

			insertResult := `
				INSERT INTO game_results (game_id, player_id, score, did_win)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (game_id, player_id)
				DO UPDATE SET score=$3, did_win=$4
			`
			if _, e := tx.Exec(ctx, insertResult, gameID, playerID, score, didWin); e != nil {
				return e
			}

			updateStats := `
				UPDATE users
				SET games_played = games_played + 1,
				    games_won = games_won + CASE WHEN $2 THEN 1 ELSE 0 END,
				    total_score = total_score + $3
				WHERE id = $1
			`
			if _, e := tx.Exec(ctx, updateStats, playerID, didWin, score); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert game or results: %w", err)
	}
	return nil
}
