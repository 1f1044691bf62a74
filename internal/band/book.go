package band

import (
	"main/internal/schema"
	"sync"
)

// MidCache is a BookSource fed by whatever process consumes the LOB engine's
// snapshots. It keeps only the last mid per symbol.
type MidCache struct {
	mu   sync.RWMutex
	mids map[uint32]BookSnapshot
}

// NewMidCache creates an empty cache.
func NewMidCache() *MidCache {
	return &MidCache{mids: make(map[uint32]BookSnapshot)}
}

// SetMid updates the cached mid price for a symbol. A zero mid clears it.
func (c *MidCache) SetMid(symbolID uint32, mid schema.Price) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mid <= 0 {
		delete(c.mids, symbolID)
		return
	}
	c.mids[symbolID] = BookSnapshot{MidPrice: mid}
}

// Snapshot implements BookSource.
func (c *MidCache) Snapshot(symbolID uint32) (BookSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.mids[symbolID]
	return snap, ok
}
