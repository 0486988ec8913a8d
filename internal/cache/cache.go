// Package cache provides the bounded in-memory store of recent search
// results that the MCP resources project.
package cache

import (
	"sync"

	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/types"
)

// DefaultCapacity is the number of records kept when no capacity is configured.
const DefaultCapacity = 50

// RecentSearches is a fixed-capacity FIFO store of SearchRecord. Appends
// evict from the front once the capacity is exceeded. Positional indices
// shift on eviction; callers must not treat an index as a stable identity.
type RecentSearches struct {
	mu       sync.RWMutex
	records  []types.SearchRecord
	capacity int
}

// New creates an empty store with the given capacity. Non-positive
// capacities fall back to DefaultCapacity.
func New(capacity int) *RecentSearches {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RecentSearches{
		records:  make([]types.SearchRecord, 0, capacity),
		capacity: capacity,
	}
}

// Append adds a record at the end, evicting the oldest records while the
// store is over capacity. It never fails.
func (rs *RecentSearches) Append(record types.SearchRecord) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.records = append(rs.records, record)
	if over := len(rs.records) - rs.capacity; over > 0 {
		rs.records = append(rs.records[:0], rs.records[over:]...)
	}
}

// List returns a snapshot of the current records in insertion order.
func (rs *RecentSearches) List() []types.SearchRecord {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	snapshot := make([]types.SearchRecord, len(rs.records))
	copy(snapshot, rs.records)
	return snapshot
}

// Get returns the record at the given 0-based position. The second return
// value is false when the index is out of the current bounds.
func (rs *RecentSearches) Get(index int) (types.SearchRecord, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	if index < 0 || index >= len(rs.records) {
		return types.SearchRecord{}, false
	}
	return rs.records[index], true
}

// Len returns the current number of records.
func (rs *RecentSearches) Len() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.records)
}

// Capacity returns the fixed capacity of the store.
func (rs *RecentSearches) Capacity() int {
	return rs.capacity
}
