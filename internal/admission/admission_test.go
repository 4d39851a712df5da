// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package admission

import (
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	c := New(2, time.Hour)

	require.NoError(t, c.Acquire("run-1"))
	require.NoError(t, c.Acquire("run-2"))
	assert.Equal(t, 2, c.Active())

	err := c.Acquire("run-3")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrSystemBusy))

	c.Release("run-1")
	assert.Equal(t, 1, c.Active())
	require.NoError(t, c.Acquire("run-3"))
}

func TestReleaseUnknownRunIsNoop(t *testing.T) {
	c := New(1, time.Hour)
	require.NoError(t, c.Acquire("run-1"))
	c.Release("never-acquired")
	assert.Equal(t, 1, c.Active())
}

func TestReset(t *testing.T) {
	c := New(2, time.Hour)
	require.NoError(t, c.Acquire("run-1"))
	require.NoError(t, c.Acquire("run-2"))

	c.Reset()
	assert.Equal(t, 0, c.Active())
	require.NoError(t, c.Acquire("run-3"))
}

func TestStaleReclaim(t *testing.T) {
	c := New(1, 3*time.Hour)
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	c.nowFunc = func() time.Time { return now }

	require.NoError(t, c.Acquire("stuck-run"))

	// Pool full, holder not yet stale.
	now = now.Add(2 * time.Hour)
	err := c.Acquire("run-2")
	require.Error(t, err)

	// Past the ceiling the stuck run's token is reclaimed.
	now = now.Add(90 * time.Minute)
	require.NoError(t, c.Acquire("run-2"))
	assert.Equal(t, 1, c.Active())

	// The reclaimed run can still release without disturbing the new holder.
	c.Release("stuck-run")
	assert.Equal(t, 1, c.Active())
}

func TestRunsOrderedByStart(t *testing.T) {
	c := New(3, time.Hour)
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	c.nowFunc = func() time.Time { return now }

	require.NoError(t, c.Acquire("first"))
	now = now.Add(time.Minute)
	require.NoError(t, c.Acquire("second"))
	now = now.Add(time.Minute)
	require.NoError(t, c.Acquire("third"))

	runs := c.Runs()
	require.Len(t, runs, 3)
	assert.Equal(t, "first", runs[0].ID)
	assert.Equal(t, "second", runs[1].ID)
	assert.Equal(t, "third", runs[2].ID)
}

func TestDefaults(t *testing.T) {
	c := New(0, 0)
	assert.Equal(t, DefaultCapacity, c.capacity)
	assert.Equal(t, DefaultStaleAfter, c.staleAfter)
}

func TestConcurrentAcquire(t *testing.T) {
	c := New(3, time.Hour)

	var wg sync.WaitGroup
	granted := make(chan string, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := c.Acquire(id); err == nil {
				granted <- id
			}
		}(string(rune('a' + i)))
	}
	wg.Wait()
	close(granted)

	var ok int
	for range granted {
		ok++
	}
	assert.Equal(t, 3, ok)
	assert.Equal(t, 3, c.Active())
}
