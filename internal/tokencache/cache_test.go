package tokencache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Put("k", "v", time.Minute)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestGetExpired(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Put("k", "v", -time.Second)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestTakeIsSingleUse(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Put("code", "user-1", time.Minute)

	got, ok := c.Take("code")
	require.True(t, ok)
	assert.Equal(t, "user-1", got)

	_, ok = c.Take("code")
	assert.False(t, ok)
}

func TestTakeExpired(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Put("code", "user-1", -time.Second)

	_, ok := c.Take("code")
	assert.False(t, ok)
}

func TestOverwriteResetsValue(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Put("k", "old", time.Minute)
	c.Put("k", "new", time.Minute)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestSweepRemovesExpiredEntries(t *testing.T) {
	c := New(5 * time.Millisecond)
	defer c.Close()

	c.Put("gone", "v", time.Millisecond)
	c.Put("kept", "v", time.Minute)

	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("gone")
	assert.False(t, ok)
	got, ok := c.Get("kept")
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestTakeConcurrentSingleWinner(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	for i := 0; i < 500; i++ {
		c.Put("code", "v", time.Minute)

		var wins int32
		var wg sync.WaitGroup
		start := make(chan struct{})
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if _, ok := c.Take("code"); ok {
					atomic.AddInt32(&wins, 1)
				}
			}()
		}
		close(start)
		wg.Wait()

		require.EqualValues(t, 1, wins, "round %d", i)
	}
}
