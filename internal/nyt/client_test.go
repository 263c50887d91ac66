package nyt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPuzzleTestClient(serverURL string) *PuzzleClient {
	return NewPuzzleClient(&http.Client{}, serverURL, 2*time.Second, 1000)
}

func TestPuzzleForDate(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/2024-03-01.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 986, "print_date": "2024-03-01", "solution": "piano"}`))
	}))
	defer server.Close()

	client := newPuzzleTestClient(server.URL)
	info, err := client.PuzzleForDate(context.Background(), "2024-03-01")

	require.NoError(t, err)
	assert.Equal(t, int64(986), info.ID)
	assert.Equal(t, "2024-03-01", info.PrintDate)
	assert.Equal(t, "piano", info.Solution)
	assert.Equal(t, int32(1), requests.Load())
}

func TestPuzzleForDateNotFound(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newPuzzleTestClient(server.URL)
	_, err := client.PuzzleForDate(context.Background(), "2031-01-01")

	require.ErrorIs(t, err, ErrNotFound)
	// Not-found is never retried
	assert.Equal(t, int32(1), requests.Load())
}

func TestPuzzleForDateRetriesOnceOnServerError(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"id": 42, "print_date": "2024-03-01", "solution": "crane"}`))
	}))
	defer server.Close()

	client := newPuzzleTestClient(server.URL)
	info, err := client.PuzzleForDate(context.Background(), "2024-03-01")

	require.NoError(t, err)
	assert.Equal(t, int64(42), info.ID)
	assert.Equal(t, int32(2), requests.Load())
}

func TestPuzzleForDatePersistentServerError(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newPuzzleTestClient(server.URL)
	_, err := client.PuzzleForDate(context.Background(), "2024-03-01")

	require.Error(t, err)
	// One retry at most: two attempts total
	assert.Equal(t, int32(2), requests.Load())
}

func TestGameStatesKeyedByPuzzleID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100,101,102", r.URL.Query().Get("puzzle_ids"))

		regi, err := r.Cookie("regi_id")
		if assert.NoError(t, err) {
			assert.Equal(t, "123", regi.Value)
		}

		// Out of request order, and 101 was never played
		_, _ = w.Write([]byte(`{"states": [
			{"puzzle_id": 102, "game_data": {"status": "WIN"}},
			{"puzzle_id": 100, "game_data": {"status": "FAIL"}}
		]}`))
	}))
	defer server.Close()

	client := NewStateClient(&http.Client{}, server.URL, "regi_id=123; NYT-S=tok", 2*time.Second)
	states, err := client.GameStates(context.Background(), []int64{100, 101, 102})

	require.NoError(t, err)
	assert.Len(t, states, 2)
	assert.Contains(t, states, int64(100))
	assert.Contains(t, states, int64(102))
	assert.NotContains(t, states, int64(101))
}

func TestGameStatesUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewStateClient(&http.Client{}, server.URL, "regi_id=123", 2*time.Second)
	_, err := client.GameStates(context.Background(), []int64{100})

	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestGameStatesEmptyIDs(t *testing.T) {
	client := NewStateClient(&http.Client{}, "http://unused.invalid", "regi_id=123", time.Second)
	states, err := client.GameStates(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, states)
}
