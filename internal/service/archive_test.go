package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnonk323/wordle-archive/internal/model"
	"github.com/gnonk323/wordle-archive/internal/repository"
)

type fakeReader struct {
	games      []*model.GameRecord
	listErr    error
	fetchedAt  time.Time
	fetchedErr error
}

func (f *fakeReader) ListFinished(context.Context, string) ([]*model.GameRecord, error) {
	return f.games, f.listErr
}

func (f *fakeReader) LastFetchedAt(context.Context, string) (time.Time, error) {
	if f.fetchedErr != nil {
		return time.Time{}, f.fetchedErr
	}
	return f.fetchedAt, nil
}

func TestArchiveGames(t *testing.T) {
	fetchedAt := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	reader := &fakeReader{
		games: []*model.GameRecord{
			{PrintDate: "2024-03-10", GameState: model.GameState{Status: model.StatusWin}},
			{PrintDate: "2024-03-09", GameState: model.GameState{Status: model.StatusFail}},
		},
		fetchedAt: fetchedAt,
	}
	s := NewArchiveService(reader, testUserID)

	archive, err := s.Games(context.Background())

	require.NoError(t, err)
	assert.Equal(t, testUserID, archive.UserID)
	require.NotNil(t, archive.LastSyncedAt)
	assert.Equal(t, fetchedAt, *archive.LastSyncedAt)
	assert.Len(t, archive.Games, 2)
}

func TestArchiveGamesEmpty(t *testing.T) {
	reader := &fakeReader{fetchedErr: repository.ErrNoGames}
	s := NewArchiveService(reader, testUserID)

	archive, err := s.Games(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, archive.Games)
	assert.Empty(t, archive.Games)
	assert.Nil(t, archive.LastSyncedAt)
}

func TestArchiveGamesStorageError(t *testing.T) {
	reader := &fakeReader{listErr: errors.New("db down")}
	s := NewArchiveService(reader, testUserID)

	_, err := s.Games(context.Background())

	require.Error(t, err)
}
