package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var testStartDate = time.Date(2021, 6, 19, 0, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveFirstSyncWithLookback(t *testing.T) {
	resolver := NewRangeResolver(time.UTC, 5, testStartDate)
	now := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

	dates := resolver.Resolve(time.Time{}, now)

	// Lookback of 5 plus today itself
	require.Len(t, dates, 6)
	assert.Equal(t, day(2024, 3, 5), dates[0])
	assert.Equal(t, day(2024, 3, 10), dates[5])
}

func TestResolveFirstSyncFromStartDate(t *testing.T) {
	resolver := NewRangeResolver(time.UTC, 0, testStartDate)
	now := time.Date(2021, 6, 21, 8, 0, 0, 0, time.UTC)

	dates := resolver.Resolve(time.Time{}, now)

	require.Len(t, dates, 3)
	assert.Equal(t, day(2021, 6, 19), dates[0])
	assert.Equal(t, day(2021, 6, 21), dates[2])
}

func TestResolveAfterCursor(t *testing.T) {
	resolver := NewRangeResolver(time.UTC, 0, testStartDate)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	dates := resolver.Resolve(day(2024, 3, 7), now)

	require.Len(t, dates, 3)
	assert.Equal(t, day(2024, 3, 8), dates[0])
	assert.Equal(t, day(2024, 3, 9), dates[1])
	assert.Equal(t, day(2024, 3, 10), dates[2])
}

func TestResolveUpToDate(t *testing.T) {
	resolver := NewRangeResolver(time.UTC, 0, testStartDate)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Empty(t, resolver.Resolve(day(2024, 3, 10), now))
	// A cursor ahead of today must not produce a negative range
	assert.Empty(t, resolver.Resolve(day(2024, 3, 12), now))
}

func TestResolveUsesReferenceTimezone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	resolver := NewRangeResolver(ny, 0, testStartDate)

	// 01:00 UTC on March 2nd is still March 1st in New York
	now := time.Date(2024, 3, 2, 1, 0, 0, 0, time.UTC)
	dates := resolver.Resolve(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), now)

	require.Len(t, dates, 2)
	assert.Equal(t, "2024-02-29", dates[0].Format(dateLayout))
	assert.Equal(t, "2024-03-01", dates[1].Format(dateLayout))
}

// TestResolveRangeProperty checks that for any cursor behind today, the
// resolved range is consecutive, ascending, starts the day after the
// cursor, and ends today.
func TestResolveRangeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		resolver := NewRangeResolver(time.UTC, 0, testStartDate)

		now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
		behind := rapid.IntRange(1, 400).Draw(t, "daysBehind")
		cursor := day(2024, 3, 10).AddDate(0, 0, -behind)

		dates := resolver.Resolve(cursor, now)

		if len(dates) != behind {
			t.Fatalf("expected %d dates, got %d", behind, len(dates))
		}
		for i, d := range dates {
			expected := cursor.AddDate(0, 0, i+1)
			if !d.Equal(expected) {
				t.Fatalf("date %d: expected %v, got %v", i, expected, d)
			}
		}
		if !dates[len(dates)-1].Equal(day(2024, 3, 10)) {
			t.Fatalf("range must end today, got %v", dates[len(dates)-1])
		}
	})
}
