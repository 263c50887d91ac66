// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gnonk323/wordle-archive/internal/model"
)

// Common errors for repository operations.
var (
	ErrNoGames = errors.New("no games found")
)

const dateLayout = "2006-01-02"

// GameRepository handles archived game persistence.
type GameRepository struct {
	pool *pgxpool.Pool
}

// NewGameRepository creates a new GameRepository instance.
func NewGameRepository(pool *pgxpool.Pool) *GameRepository {
	return &GameRepository{pool: pool}
}

// Upsert inserts a game record or fully replaces the existing one for the
// same (user_id, print_date). The fetched payload is authoritative, so
// every payload column is overwritten, not merged. Each upsert is
// independently atomic.
func (r *GameRepository) Upsert(ctx context.Context, record *model.GameRecord) error {
	const query = `
		INSERT INTO games (user_id, print_date, puzzle_id, solution, game_state, fetched_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, print_date) DO UPDATE
		SET puzzle_id = EXCLUDED.puzzle_id,
		    solution = EXCLUDED.solution,
		    game_state = EXCLUDED.game_state,
		    fetched_at = EXCLUDED.fetched_at
	`

	_, err := r.pool.Exec(ctx, query,
		record.UserID,
		record.PrintDate,
		record.PuzzleID,
		record.Solution,
		record.GameState,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert game for %s: %w", record.PrintDate, err)
	}

	return nil
}

// LatestPrintDate returns the most recent archived print date for the
// user, the sync cursor. Returns ErrNoGames when the archive is empty.
func (r *GameRepository) LatestPrintDate(ctx context.Context, userID string) (time.Time, error) {
	const query = `
		SELECT print_date
		FROM games
		WHERE user_id = $1
		ORDER BY print_date DESC
		LIMIT 1
	`

	var latest time.Time
	err := r.pool.QueryRow(ctx, query, userID).Scan(&latest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrNoGames
		}
		return time.Time{}, fmt.Errorf("failed to get latest print date: %w", err)
	}

	return latest, nil
}

// ListFinished retrieves the user's finished games (won or failed),
// newest print date first. In-progress games are excluded from the read
// contract.
func (r *GameRepository) ListFinished(ctx context.Context, userID string) ([]*model.GameRecord, error) {
	const query = `
		SELECT id, user_id, print_date, puzzle_id, solution, game_state, fetched_at
		FROM games
		WHERE user_id = $1
		  AND game_state->>'status' IN ($2, $3)
		ORDER BY print_date DESC
	`

	rows, err := r.pool.Query(ctx, query, userID, model.StatusWin, model.StatusFail)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var games []*model.GameRecord
	for rows.Next() {
		record, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}

	return games, nil
}

// GetByDate retrieves the user's game for a single print date.
// Returns ErrNoGames if no record exists for that date.
func (r *GameRepository) GetByDate(ctx context.Context, userID, printDate string) (*model.GameRecord, error) {
	const query = `
		SELECT id, user_id, print_date, puzzle_id, solution, game_state, fetched_at
		FROM games
		WHERE user_id = $1 AND print_date = $2
	`

	rows, err := r.pool.Query(ctx, query, userID, printDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get game: %w", err)
		}
		return nil, ErrNoGames
	}

	return scanGame(rows)
}

// LastFetchedAt returns the time of the most recent write for the user,
// reported to clients as lastSyncedAt. Returns ErrNoGames when the
// archive is empty.
func (r *GameRepository) LastFetchedAt(ctx context.Context, userID string) (time.Time, error) {
	const query = `
		SELECT fetched_at
		FROM games
		WHERE user_id = $1
		ORDER BY fetched_at DESC
		LIMIT 1
	`

	var fetchedAt time.Time
	err := r.pool.QueryRow(ctx, query, userID).Scan(&fetchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrNoGames
		}
		return time.Time{}, fmt.Errorf("failed to get last fetched time: %w", err)
	}

	return fetchedAt, nil
}

// Count returns the number of archived games for the user.
func (r *GameRepository) Count(ctx context.Context, userID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM games WHERE user_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count games: %w", err)
	}

	return count, nil
}

// scanGame scans the current row into a GameRecord, converting the DATE
// column to its ISO string form.
func scanGame(rows pgx.Rows) (*model.GameRecord, error) {
	var (
		record    model.GameRecord
		printDate time.Time
	)
	err := rows.Scan(
		&record.ID,
		&record.UserID,
		&printDate,
		&record.PuzzleID,
		&record.Solution,
		&record.GameState,
		&record.FetchedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan game: %w", err)
	}
	record.PrintDate = printDate.Format(dateLayout)
	return &record, nil
}
