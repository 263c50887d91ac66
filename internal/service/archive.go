package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gnonk323/wordle-archive/internal/model"
	"github.com/gnonk323/wordle-archive/internal/repository"
)

// ArchiveReader is the slice of the repository the read side consumes.
type ArchiveReader interface {
	ListFinished(ctx context.Context, userID string) ([]*model.GameRecord, error)
	LastFetchedAt(ctx context.Context, userID string) (time.Time, error)
}

// Archive is the read contract served to presentation collaborators:
// finished games newest first plus when the archive was last written.
type Archive struct {
	UserID       string              `json:"userId"`
	LastSyncedAt *time.Time          `json:"lastSyncedAt"`
	Games        []*model.GameRecord `json:"games"`
}

// ArchiveService serves read-only views over the archived games.
type ArchiveService struct {
	reader ArchiveReader
	userID string
}

// NewArchiveService creates a new ArchiveService for a single archive owner.
func NewArchiveService(reader ArchiveReader, userID string) *ArchiveService {
	return &ArchiveService{reader: reader, userID: userID}
}

// Games returns the owner's finished games and the last sync time.
// An empty archive is a valid response with a nil lastSyncedAt.
func (s *ArchiveService) Games(ctx context.Context) (*Archive, error) {
	games, err := s.reader.ListFinished(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}
	if games == nil {
		games = []*model.GameRecord{}
	}

	archive := &Archive{
		UserID: s.userID,
		Games:  games,
	}

	lastFetched, err := s.reader.LastFetchedAt(ctx, s.userID)
	if err != nil {
		if errors.Is(err, repository.ErrNoGames) {
			return archive, nil
		}
		return nil, fmt.Errorf("failed to load last sync time: %w", err)
	}
	archive.LastSyncedAt = &lastFetched

	return archive, nil
}
