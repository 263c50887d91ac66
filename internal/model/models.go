// Package model defines the data models for the Wordle archive service.
package model

import "time"

// Game status values reported by the NYT game-state service.
const (
	StatusWin        = "WIN"
	StatusFail       = "FAIL"
	StatusInProgress = "IN_PROGRESS"
)

// GameState is the structured result of a single Wordle game.
// CurrentRowIndex is only meaningful once the game is finished.
type GameState struct {
	BoardState      []string `json:"boardState"`
	CurrentRowIndex int      `json:"currentRowIndex"`
	HardMode        bool     `json:"hardMode"`
	Status          string   `json:"status"`
}

// Finished reports whether the game reached a terminal state.
func (s *GameState) Finished() bool {
	return s.Status == StatusWin || s.Status == StatusFail
}

// GameRecord is one archived Wordle result. There is exactly one record
// per (user_id, print_date) pair; re-syncing a date overwrites it.
type GameRecord struct {
	ID        int64     `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	PrintDate string    `db:"print_date" json:"printDate"`
	PuzzleID  int64     `db:"puzzle_id" json:"puzzleId"`
	Solution  string    `db:"solution" json:"solution"`
	GameState GameState `db:"game_state" json:"gameState"`
	FetchedAt time.Time `db:"fetched_at" json:"fetchedAt"`
}

// Terminal sync statuses reported by the orchestrator.
const (
	SyncStatusAlreadyUpToDate = "ALREADY_UP_TO_DATE"
	SyncStatusNoIDsFound      = "NO_IDS_FOUND"
	SyncStatusNoNewData       = "NO_NEW_DATA"
	SyncStatusDone            = "DONE"
	SyncStatusFailed          = "FAILED"
	SyncStatusInProgress      = "SYNC_IN_PROGRESS"
)

// Sync error stages for per-unit failure reporting.
const (
	SyncStageLookup = "lookup"
	SyncStageFetch  = "fetch"
	SyncStageMerge  = "merge"
)

// SyncError records a single per-date or per-batch failure that did not
// abort the sync.
type SyncError struct {
	Stage   string `json:"stage"`
	Date    string `json:"date,omitempty"`
	Message string `json:"message"`
}

// SyncSummary is the result of one sync run.
type SyncSummary struct {
	Status string      `json:"status"`
	Added  int         `json:"added"`
	Errors []SyncError `json:"errors,omitempty"`
}
