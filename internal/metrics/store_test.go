package metrics

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStoreWithPath(filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestIncrementAndTotals(t *testing.T) {
	store := newTempStore(t)

	require.NoError(t, store.Increment(ModeSearch))
	require.NoError(t, store.Increment(ModeSearch))
	require.NoError(t, store.Increment(ModeFindSimilar))

	total, err := store.GetTotalByMode(ModeSearch)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	total, err = store.GetTotalByMode(ModeFindSimilar)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	total, err = store.GetTotalByMode(ModeGetContents)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestGetCountByDate(t *testing.T) {
	store := newTempStore(t)

	require.NoError(t, store.Increment(ModeResource))

	today := time.Now().Format("2006-01-02")
	count, err := store.GetCountByDate(ModeResource, today)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = store.GetCountByDate(ModeResource, "1999-01-01")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestGetAllTotalsIncludesAllModes(t *testing.T) {
	store := newTempStore(t)

	require.NoError(t, store.Increment(ModeGetContents))

	totals, err := store.GetAllTotals()
	require.NoError(t, err)
	require.Len(t, totals, len(AllModes))

	assert.Equal(t, int64(1), totals[ModeGetContents])
	assert.Equal(t, int64(0), totals[ModeSearch])
	assert.Equal(t, int64(0), totals[ModeFindSimilar])
	assert.Equal(t, int64(0), totals[ModeResource])
}

func TestRecordInvocationWithoutStoreIsNoop(t *testing.T) {
	ResetForTesting()
	t.Cleanup(ResetForTesting)

	// Must not panic when the store was never initialized.
	RecordInvocation(ModeSearch)
	assert.Nil(t, GetStats())
}

func TestRecordInvocationWithStore(t *testing.T) {
	ResetForTesting()
	t.Cleanup(ResetForTesting)

	store, err := NewStoreWithPath(filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	SetStoreForTesting(store)

	RecordInvocation(ModeSearch)
	RecordInvocation(ModeSearch)
	RecordInvocation(ModeResource)

	stats := GetStats()
	require.NotNil(t, stats)
	assert.Equal(t, int64(2), stats[ModeSearch])
	assert.Equal(t, int64(1), stats[ModeResource])
}
