package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdmit_WindowPolicy(t *testing.T) {
	l := New(20, time.Minute)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 20; i++ {
		assert.True(t, l.Admit(7, base.Add(time.Duration(i)*time.Second)), "call %d", i+1)
	}
	// 21st inside the same window is rejected.
	assert.False(t, l.Admit(7, base.Add(30*time.Second)))

	// Once the earliest entries age out, admission resumes.
	assert.True(t, l.Admit(7, base.Add(61*time.Second)))
}

func TestAdmit_RejectionNotCounted(t *testing.T) {
	l := New(2, time.Minute)
	now := time.Now()

	assert.True(t, l.Admit(1, now))
	assert.True(t, l.Admit(1, now))
	for i := 0; i < 5; i++ {
		assert.False(t, l.Admit(1, now))
	}
	// Rejections must not extend the window: both admitted entries expire
	// together regardless of how many rejected attempts followed.
	assert.True(t, l.Admit(1, now.Add(61*time.Second)))
}

func TestAdmit_UsersIndependent(t *testing.T) {
	l := New(1, time.Minute)
	now := time.Now()

	assert.True(t, l.Admit(1, now))
	assert.False(t, l.Admit(1, now))
	assert.True(t, l.Admit(2, now))
}

func TestAdmit_Concurrent(t *testing.T) {
	const limit = 50
	l := New(limit, time.Minute)
	now := time.Now()

	var wg sync.WaitGroup
	admitted := make(chan bool, 200)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				admitted <- l.Admit(42, now)
			}
		}()
	}
	wg.Wait()
	close(admitted)

	var n int
	for ok := range admitted {
		if ok {
			n++
		}
	}
	// No lost updates, no double counting: exactly `limit` admissions.
	assert.Equal(t, limit, n)
}

func TestSweep(t *testing.T) {
	l := New(5, time.Minute)
	base := time.Now()

	l.Admit(1, base)
	l.Admit(2, base.Add(50*time.Second))
	assert.Equal(t, 2, l.Tracked())

	l.Sweep(base.Add(90 * time.Second))
	assert.Equal(t, 1, l.Tracked())

	l.Sweep(base.Add(3 * time.Minute))
	assert.Equal(t, 0, l.Tracked())
}

func TestSweepDoesNotOrphanInFlightAdmit(t *testing.T) {
	l := New(1, time.Minute)
	base := time.Now()

	l.Admit(5, base.Add(-2*time.Minute))

	// Evict the stale window while holding a pointer to it, the way a
	// concurrent Admit that lost the race would.
	l.mu.Lock()
	evicted := l.windows[5]
	l.mu.Unlock()
	l.Sweep(base)
	assert.True(t, evicted.gone)
	assert.Equal(t, 0, l.Tracked())

	// An admission after the sweep must land in the live replacement, so
	// with limit 1 a second attempt at the same instant is rejected.
	assert.True(t, l.Admit(5, base))
	assert.False(t, l.Admit(5, base))

	l.mu.Lock()
	live := l.windows[5]
	l.mu.Unlock()
	assert.NotSame(t, evicted, live)
	assert.Len(t, live.times, 1)
}

func TestDisabled(t *testing.T) {
	l := New(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Admit(1, time.Now()))
	}
}
