package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gnonk323/wordle-archive/internal/model"
	"github.com/gnonk323/wordle-archive/internal/nyt"
	"github.com/gnonk323/wordle-archive/internal/pkg/lock"
	"github.com/gnonk323/wordle-archive/internal/repository"
)

// Common errors for sync operations.
var (
	// ErrSyncInProgress is returned when a sync for the same user is
	// already running. Concurrent syncs are rejected, not queued.
	ErrSyncInProgress = errors.New("sync already in progress")
)

// PuzzleLookup resolves a calendar date to its puzzle metadata.
type PuzzleLookup interface {
	PuzzleForDate(ctx context.Context, date string) (*nyt.PuzzleInfo, error)
}

// StateFetcher retrieves game-state payloads for a batch of puzzle ids,
// keyed by id.
type StateFetcher interface {
	GameStates(ctx context.Context, ids []int64) (map[int64]json.RawMessage, error)
}

// GameStore is the slice of the repository the sync engine writes through.
type GameStore interface {
	Upsert(ctx context.Context, record *model.GameRecord) error
	LatestPrintDate(ctx context.Context, userID string) (time.Time, error)
}

// SyncService orchestrates one archive sync: resolve the missing date
// range, look up puzzle ids, fetch game states in batches, and merge the
// results into storage. A run either walks the whole state machine or
// fails outright; records written before a failure stay committed.
type SyncService struct {
	puzzles  PuzzleLookup
	states   StateFetcher
	store    GameStore
	resolver *RangeResolver
	locks    *lock.UserLock

	userID            string
	batchSize         int
	lookupConcurrency int

	// now is swapped out in tests
	now func() time.Time
}

// NewSyncService creates a new SyncService for a single archive owner.
func NewSyncService(
	puzzles PuzzleLookup,
	states StateFetcher,
	store GameStore,
	resolver *RangeResolver,
	locks *lock.UserLock,
	userID string,
	batchSize int,
	lookupConcurrency int,
) *SyncService {
	if batchSize < 1 {
		batchSize = 20
	}
	if lookupConcurrency < 1 {
		lookupConcurrency = 1
	}
	return &SyncService{
		puzzles:           puzzles,
		states:            states,
		store:             store,
		resolver:          resolver,
		locks:             locks,
		userID:            userID,
		batchSize:         batchSize,
		lookupConcurrency: lookupConcurrency,
		now:               time.Now,
	}
}

// resolvedPuzzle pairs a date in the range with its puzzle metadata.
type resolvedPuzzle struct {
	date string
	info *nyt.PuzzleInfo
}

// Run executes a single sync to completion. Only one sync per user may be
// in flight; a second call returns ErrSyncInProgress. On a FAILED summary
// the error is also returned so callers can distinguish expected
// "nothing to do" outcomes from real failures.
func (s *SyncService) Run(ctx context.Context) (*model.SyncSummary, error) {
	if !s.locks.TryLock(s.userID) {
		return &model.SyncSummary{Status: model.SyncStatusInProgress}, ErrSyncInProgress
	}
	defer s.locks.Unlock(s.userID)

	started := s.now()
	log.Info().Str("user_id", s.userID).Msg("Starting sync")

	summary, err := s.run(ctx)
	if err != nil {
		log.Error().Err(err).Str("user_id", s.userID).Msg("Sync failed")
		return summary, err
	}

	log.Info().
		Str("user_id", s.userID).
		Str("status", summary.Status).
		Int("added", summary.Added).
		Int("unit_errors", len(summary.Errors)).
		Dur("elapsed", s.now().Sub(started)).
		Msg("Sync finished")
	return summary, nil
}

func (s *SyncService) run(ctx context.Context) (*model.SyncSummary, error) {
	summary := &model.SyncSummary{}

	// RESOLVE_RANGE: recompute the cursor from storage on every run
	cursor, err := s.store.LatestPrintDate(ctx, s.userID)
	if err != nil && !errors.Is(err, repository.ErrNoGames) {
		summary.Status = model.SyncStatusFailed
		return summary, fmt.Errorf("failed to resolve sync cursor: %w", err)
	}

	dates := s.resolver.Resolve(cursor, s.now())
	if len(dates) == 0 {
		summary.Status = model.SyncStatusAlreadyUpToDate
		return summary, nil
	}
	log.Debug().
		Str("from", dates[0].Format(dateLayout)).
		Str("to", dates[len(dates)-1].Format(dateLayout)).
		Int("days", len(dates)).
		Msg("Resolved missing date range")

	// LOOKUP_IDS
	resolved, lookupErrs := s.lookupIDs(ctx, dates)
	summary.Errors = append(summary.Errors, lookupErrs...)
	if len(resolved) == 0 {
		summary.Status = model.SyncStatusNoIDsFound
		return summary, nil
	}

	// FETCH_BATCHES
	states, fetchErrs, err := s.fetchBatches(ctx, resolved)
	summary.Errors = append(summary.Errors, fetchErrs...)
	if err != nil {
		summary.Status = model.SyncStatusFailed
		return summary, err
	}

	// MERGE
	added, mergeErrs, err := s.merge(ctx, resolved, states)
	summary.Errors = append(summary.Errors, mergeErrs...)
	summary.Added = added
	if err != nil {
		summary.Status = model.SyncStatusFailed
		return summary, err
	}

	if added == 0 {
		summary.Status = model.SyncStatusNoNewData
	} else {
		summary.Status = model.SyncStatusDone
	}
	return summary, nil
}

// lookupIDs resolves each date in the range to its puzzle id with bounded
// concurrency. Per-date failures drop the date from the sync; dates the
// service has no puzzle for are skipped silently. The result preserves
// ascending date order.
func (s *SyncService) lookupIDs(ctx context.Context, dates []time.Time) ([]resolvedPuzzle, []model.SyncError) {
	infos := make([]*nyt.PuzzleInfo, len(dates))

	var (
		mu       sync.Mutex
		syncErrs []model.SyncError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.lookupConcurrency)
	for i, d := range dates {
		date := d.Format(dateLayout)
		g.Go(func() error {
			info, err := s.puzzles.PuzzleForDate(gctx, date)
			if err != nil {
				if errors.Is(err, nyt.ErrNotFound) {
					// No puzzle published for this date; nothing to archive
					return nil
				}
				mu.Lock()
				syncErrs = append(syncErrs, model.SyncError{
					Stage:   model.SyncStageLookup,
					Date:    date,
					Message: err.Error(),
				})
				mu.Unlock()
				return nil
			}
			infos[i] = info
			return nil
		})
	}
	// Workers never return errors; per-date failures are collected above
	_ = g.Wait()

	resolved := make([]resolvedPuzzle, 0, len(dates))
	var prevID int64
	for i, info := range infos {
		if info == nil {
			continue
		}
		date := dates[i].Format(dateLayout)
		// Puzzle ids are assigned sequentially by day; a decrease means
		// the service returned something inconsistent
		if info.ID < prevID {
			log.Warn().
				Str("date", date).
				Int64("puzzle_id", info.ID).
				Int64("previous_id", prevID).
				Msg("Puzzle id not monotonic with print date")
		}
		prevID = info.ID
		resolved = append(resolved, resolvedPuzzle{date: date, info: info})
	}
	return resolved, syncErrs
}

// fetchBatches splits the resolved ids into batches of at most batchSize
// and fetches each batch independently. A failed batch is recorded and
// skipped; only a credentials rejection or zero successful batches aborts
// the sync.
func (s *SyncService) fetchBatches(ctx context.Context, resolved []resolvedPuzzle) (map[int64]json.RawMessage, []model.SyncError, error) {
	ids := make([]int64, len(resolved))
	for i, rp := range resolved {
		ids[i] = rp.info.ID
	}

	states := make(map[int64]json.RawMessage)
	var syncErrs []model.SyncError

	batches := chunkIDs(ids, s.batchSize)
	succeeded := 0
	for _, batch := range batches {
		batchStates, err := s.states.GameStates(ctx, batch)
		if err != nil {
			if errors.Is(err, nyt.ErrUnauthorized) {
				return nil, syncErrs, fmt.Errorf("game-state fetch rejected: %w", err)
			}
			syncErrs = append(syncErrs, model.SyncError{
				Stage:   model.SyncStageFetch,
				Message: fmt.Sprintf("batch of %d ids starting at %d: %v", len(batch), batch[0], err),
			})
			continue
		}
		succeeded++
		for id, raw := range batchStates {
			states[id] = raw
		}
	}

	if succeeded == 0 {
		return nil, syncErrs, errors.New("all game-state batches failed")
	}
	return states, syncErrs, nil
}

// merge normalizes the fetched payloads and upserts them keyed by
// (user_id, print_date). Malformed payloads are skipped and counted; ids
// with no state (never played) are skipped silently. A storage error
// aborts the sync, leaving earlier upserts committed.
func (s *SyncService) merge(ctx context.Context, resolved []resolvedPuzzle, states map[int64]json.RawMessage) (int, []model.SyncError, error) {
	var syncErrs []model.SyncError
	added := 0

	for _, rp := range resolved {
		raw, ok := states[rp.info.ID]
		if !ok {
			// The owner never opened this puzzle; nothing to archive
			continue
		}

		state, err := normalizeGameState(raw)
		if err != nil {
			syncErrs = append(syncErrs, model.SyncError{
				Stage:   model.SyncStageMerge,
				Date:    rp.date,
				Message: err.Error(),
			})
			continue
		}

		if !state.Finished() {
			// Stored anyway; the read contract filters to finished games
			log.Debug().Str("date", rp.date).Msg("Archiving in-progress game")
		}

		record := &model.GameRecord{
			UserID:    s.userID,
			PrintDate: rp.date,
			PuzzleID:  rp.info.ID,
			Solution:  rp.info.Solution,
			GameState: *state,
		}
		if err := s.store.Upsert(ctx, record); err != nil {
			return added, syncErrs, fmt.Errorf("storage unavailable during merge: %w", err)
		}
		added++
	}

	return added, syncErrs, nil
}

// chunkIDs partitions ids into consecutive groups of at most size.
func chunkIDs(ids []int64, size int) [][]int64 {
	if len(ids) == 0 {
		return nil
	}
	batches := make([][]int64, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}

// normalizeGameState validates and decodes a raw game_data payload.
// A payload without a recognizable status is malformed and is never
// written to the archive.
func normalizeGameState(raw json.RawMessage) (*model.GameState, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty game_data payload")
	}

	var aux struct {
		BoardState      []string `json:"boardState"`
		CurrentRowIndex int      `json:"currentRowIndex"`
		HardMode        bool     `json:"hardMode"`
		Status          *string  `json:"status"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return nil, fmt.Errorf("malformed game_data payload: %w", err)
	}

	if aux.Status == nil {
		return nil, errors.New("game_data payload missing status")
	}
	switch *aux.Status {
	case model.StatusWin, model.StatusFail, model.StatusInProgress:
	default:
		return nil, fmt.Errorf("unknown game status %q", *aux.Status)
	}
	if len(aux.BoardState) > 6 {
		return nil, fmt.Errorf("board has %d rows, expected at most 6", len(aux.BoardState))
	}

	return &model.GameState{
		BoardState:      aux.BoardState,
		CurrentRowIndex: aux.CurrentRowIndex,
		HardMode:        aux.HardMode,
		Status:          *aux.Status,
	}, nil
}
