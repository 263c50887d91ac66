package lock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestTryLockRejectsSecondAcquire(t *testing.T) {
	ul := NewUserLock()

	require.True(t, ul.TryLock("42"))
	assert.False(t, ul.TryLock("42"), "second acquire must be rejected")
	assert.True(t, ul.IsLocked("42"))

	// Locks are independent per user
	assert.True(t, ul.TryLock("other"))
	ul.Unlock("other")

	ul.Unlock("42")
	assert.False(t, ul.IsLocked("42"))
	assert.True(t, ul.TryLock("42"))
	ul.Unlock("42")
}

func TestWithLockSerializes(t *testing.T) {
	ul := NewUserLock()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ul.WithLock("42", func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

// TestSingleFlightProperty checks that for any number of concurrent
// TryLock attempts on the same user, exactly one succeeds until released.
func TestSingleFlightProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		attempts := rapid.IntRange(2, 30).Draw(t, "attempts")
		userID := rapid.StringMatching(`[0-9]{1,8}`).Draw(t, "userID")

		ul := NewUserLock()

		results := make([]bool, attempts)
		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = ul.TryLock(userID)
			}(i)
		}
		wg.Wait()

		acquired := 0
		for _, ok := range results {
			if ok {
				acquired++
			}
		}
		if acquired != 1 {
			t.Fatalf("expected exactly 1 winner, got %d of %d", acquired, attempts)
		}

		ul.Unlock(userID)
		if !ul.TryLock(userID) {
			t.Fatal("lock must be acquirable after release")
		}
		ul.Unlock(userID)
	})
}
