package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestRoundTrip(t *testing.T) {
	c := New[string]()
	c.Set("k", "v", time.Hour)

	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestExpiryIsLazy(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[int](WithClock(clock.Now))

	c.Set("k", 42, time.Minute)
	clock.Advance(59 * time.Second)
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 42, got)

	clock.Advance(2 * time.Second)
	assert.Equal(t, 1, c.Len(), "expired entries stay until read")

	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestSetReplaces(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := New[string](WithClock(clock.Now))

	c.Set("k", "old", time.Second)
	c.Set("k", "new", time.Hour)
	clock.Advance(time.Minute)

	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestZeroTTLIsAbsent(t *testing.T) {
	c := New[string]()
	c.Set("k", "v", 0)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int]()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("k%d", j%10)
				c.Set(key, i, time.Hour)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, c.Len())
}
