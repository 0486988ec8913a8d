// Package metrics tracks tool and resource invocation counts in a local
// SQLite database and exposes them as an OpenTelemetry gauge.
package metrics

import (
	"log"
	"sync"
)

var (
	globalStore *Store
	initOnce    sync.Once
	initErr     error
)

// Init initializes the global metrics store. An empty dbPath uses the
// default location under the user's home directory. Safe to call multiple
// times; subsequent calls are no-ops.
func Init(dbPath string) error {
	initOnce.Do(func() {
		if dbPath == "" {
			globalStore, initErr = NewStore()
		} else {
			globalStore, initErr = NewStoreWithPath(dbPath)
		}
		if initErr != nil {
			log.Printf("metrics: failed to initialize store: %v", initErr)
		}
	})
	return initErr
}

// RecordInvocation increments the invocation count for the given mode.
// If the store is not initialized, this is a no-op. Recording failures
// never affect request handling.
func RecordInvocation(mode Mode) {
	if globalStore == nil {
		return
	}
	if err := globalStore.Increment(mode); err != nil {
		log.Printf("metrics: failed to record invocation for %s: %v", mode, err)
	}
}

// GetStats returns the cumulative invocation counts for all modes.
// Returns nil if the store is not initialized.
func GetStats() map[Mode]int64 {
	if globalStore == nil {
		return nil
	}

	stats, err := globalStore.GetAllTotals()
	if err != nil {
		log.Printf("metrics: failed to get stats: %v", err)
		return nil
	}

	return stats
}

// Close closes the global metrics store. Should be called at shutdown.
func Close() error {
	if globalStore != nil {
		return globalStore.Close()
	}
	return nil
}

// SetStoreForTesting sets the global store instance for testing purposes.
func SetStoreForTesting(store *Store) {
	globalStore = store
}

// ResetForTesting resets the global state for testing purposes.
func ResetForTesting() {
	if globalStore != nil {
		_ = globalStore.Close()
	}
	globalStore = nil
	initOnce = sync.Once{}
	initErr = nil
}
