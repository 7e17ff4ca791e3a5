// Package tokencache is a small in-process expiring key-value store
// for single-use tokens (cross-device pairing codes, OAuth state
// nonces). Entries are swept on an interval rather than leaking a
// timer per entry.
package tokencache

import (
	"time"

	cmap "github.com/orcaman/concurrent-map"
)

type entry struct {
	value     string
	expiresAt time.Time
}

type Cache struct {
	items cmap.ConcurrentMap
	stop  chan struct{}
}

// New creates a cache whose sweeper runs at the given interval.
func New(sweepInterval time.Duration) *Cache {
	c := &Cache{
		items: cmap.New(),
		stop:  make(chan struct{}),
	}
	go c.sweep(sweepInterval)
	return c
}

// Put stores a value under key for ttl.
func (c *Cache) Put(key, value string, ttl time.Duration) {
	c.items.Set(key, entry{value: value, expiresAt: time.Now().Add(ttl)})
}

// Get returns the value for key if it has not expired.
func (c *Cache) Get(key string) (string, bool) {
	v, ok := c.items.Get(key)
	if !ok {
		return "", false
	}
	e := v.(entry)
	if time.Now().After(e.expiresAt) {
		c.items.Remove(key)
		return "", false
	}
	return e.value, true
}

// Take returns and removes the value for key. Tokens are single-use:
// the remove is atomic per shard, so concurrent redemptions of the
// same key yield the value to exactly one caller.
func (c *Cache) Take(key string) (string, bool) {
	var value string
	var ok bool
	c.items.RemoveCb(key, func(_ string, v interface{}, exists bool) bool {
		if !exists {
			return false
		}
		e := v.(entry)
		if time.Now().After(e.expiresAt) {
			return true
		}
		value = e.value
		ok = true
		return true
	})
	return value, ok
}

// Close stops the sweeper.
func (c *Cache) Close() {
	close(c.stop)
}

func (c *Cache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			for item := range c.items.IterBuffered() {
				if now.After(item.Val.(entry).expiresAt) {
					c.items.Remove(item.Key)
				}
			}
		}
	}
}
