package seocache

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightd/internal/domain"
)

type countingLoader struct {
	calls atomic.Int32
	err   error
}

func (l *countingLoader) Fetch(_ context.Context) (*domain.Snapshot, error) {
	n := l.calls.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	return &domain.Snapshot{
		Columns:   []string{"Address"},
		Rows:      []domain.Record{{"Address": fmt.Sprintf("/page-%d", n)}},
		FetchedAt: time.Now(),
	}, nil
}

func TestCache_GetWithinTTLDoesNotRefetch(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{}
	cache := New(loader, time.Hour, nil)

	first, stale, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, stale)

	second, stale, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, stale)

	assert.Same(t, first, second, "within the TTL the identical snapshot is returned")
	assert.Equal(t, int32(1), loader.calls.Load(), "no second fetch within TTL")
}

func TestCache_ExpiryTriggersWholesaleReload(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{}
	cache := New(loader, time.Nanosecond, nil)

	first, _, err := cache.Get(context.Background())
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	second, stale, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, stale, "the refreshing caller gets fresh data")
	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestCache_FailedRefreshServesStale(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{}
	cache := New(loader, time.Nanosecond, nil)

	first, _, err := cache.Get(context.Background())
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	loader.err = fmt.Errorf("sheet unavailable")

	got, stale, err := cache.Get(context.Background())
	require.NoError(t, err, "refresh failure must not surface while stale data exists")
	assert.True(t, stale)
	assert.Same(t, first, got)
}

func TestCache_FirstLoadFailureSurfaces(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{err: fmt.Errorf("sheet unavailable")}
	cache := New(loader, time.Hour, nil)

	_, _, err := cache.Get(context.Background())
	require.Error(t, err)
}

func TestCache_ForceRefreshReplacesSnapshot(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{}
	cache := New(loader, time.Hour, nil)

	first, _, err := cache.Get(context.Background())
	require.NoError(t, err)

	require.NoError(t, cache.ForceRefresh(context.Background()))

	second, stale, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, stale)
	assert.NotSame(t, first, second)
}

func TestCache_AgeUnloaded(t *testing.T) {
	t.Parallel()

	cache := New(&countingLoader{}, time.Hour, nil)
	assert.Equal(t, time.Duration(-1), cache.Age())
}
