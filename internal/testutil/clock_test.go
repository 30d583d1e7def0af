package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var start = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

func TestFakeClock_StartsFrozen(t *testing.T) {
	c := NewFakeClock(start)
	assert.Equal(t, start, c.Now())
	assert.Equal(t, start, c.Now())
}

func TestFakeClock_AdvanceSetReset(t *testing.T) {
	c := NewFakeClock(start)

	assert.Equal(t, start.Add(time.Hour), c.Advance(time.Hour))
	c.Set(start.Add(24 * time.Hour))
	assert.Equal(t, start.Add(24*time.Hour), c.Now())

	c.Reset()
	assert.Equal(t, start, c.Now())
}

func TestFakeClock_ThreadSafe(t *testing.T) {
	c := NewFakeClock(start)
	const goroutines = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			c.Advance(time.Second)
		}()
	}
	wg.Wait()

	assert.Equal(t, start.Add(goroutines*time.Second), c.Now())
}
