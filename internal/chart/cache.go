package chart

import (
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// payloadCache is an explicit get-or-compute cache keyed by
// "datasetID|interval|kind". Concurrent requests for the same key
// share one in-flight build via singleflight; Invalidate drops every
// entry belonging to a dataset so stale payloads are never served
// after a sync.
//
// Each dataset carries a generation counter bumped on invalidation. A
// build snapshots the generation before computing and only stores its
// result if the generation is unchanged, so a build that was already
// in flight when a sync landed cannot re-populate the cache with a
// pre-sync payload.
type payloadCache struct {
	mu      sync.RWMutex
	entries map[string]any
	gens    map[string]uint64
	group   singleflight.Group
}

func newPayloadCache() *payloadCache {
	return &payloadCache{
		entries: make(map[string]any),
		gens:    make(map[string]uint64),
	}
}

func cacheKey(datasetID, interval, kind string) string {
	return datasetID + "|" + interval + "|" + kind
}

func (c *payloadCache) getOrCompute(datasetID, key string, compute func() (any, error)) (any, error) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		v, ok := c.entries[key]
		gen := c.gens[datasetID]
		c.mu.RUnlock()
		if ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gens[datasetID] == gen {
			c.entries[key] = v
		}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (c *payloadCache) invalidate(datasetID string) {
	prefix := datasetID + "|"
	c.mu.Lock()
	c.gens[datasetID]++
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// size reports the number of cached entries (used by tests).
func (c *payloadCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
