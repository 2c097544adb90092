// internal/workers/matching/match-representative/directory_test.go
package matchrepresentative

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"immigration-workers/internal/common/database"
	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/models"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	sources []json.RawMessage
	err     error
	calls   int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ map[string]interface{}) ([]json.RawMessage, error) {
	f.calls++
	return f.sources, f.err
}

func directoryPool() []models.RepresentativeCandidate {
	return []models.RepresentativeCandidate{
		{ID: "REP-001", Name: "Kim", Grade: models.GradeSenior, Availability: models.AvailabilityAvailable},
		{ID: "REP-002", Name: "Lee", Grade: models.GradeJunior, Availability: models.AvailabilityAvailable},
	}
}

func rawSources(t *testing.T, pool []models.RepresentativeCandidate) []json.RawMessage {
	t.Helper()
	sources := make([]json.RawMessage, 0, len(pool))
	for _, candidate := range pool {
		raw, err := json.Marshal(candidate)
		require.NoError(t, err)
		sources = append(sources, raw)
	}
	return sources
}

func TestFetchPool_CacheMissSearchesAndCaches(t *testing.T) {
	cfg := LoadConfig()
	pool := directoryPool()
	searcher := &fakeSearcher{sources: rawSources(t, pool)}

	db, mock := redismock.NewClientMock()
	snapshot, err := json.Marshal(pool)
	require.NoError(t, err)
	mock.ExpectGet(cfg.PoolCacheKey).RedisNil()
	mock.ExpectSet(cfg.PoolCacheKey, string(snapshot), cfg.PoolCacheTTL).SetVal("OK")

	directory := NewDirectory(cfg, searcher, &database.RedisClient{Client: db}, logger.NewTestLogger(t))

	fetched, err := directory.FetchPool(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pool, fetched)
	assert.Equal(t, 1, searcher.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchPool_CacheHitSkipsSearch(t *testing.T) {
	cfg := LoadConfig()
	pool := directoryPool()
	snapshot, err := json.Marshal(pool)
	require.NoError(t, err)

	db, mock := redismock.NewClientMock()
	mock.ExpectGet(cfg.PoolCacheKey).SetVal(string(snapshot))

	searcher := &fakeSearcher{err: errors.New("must not be called")}
	directory := NewDirectory(cfg, searcher, &database.RedisClient{Client: db}, logger.NewTestLogger(t))

	fetched, err := directory.FetchPool(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pool, fetched)
	assert.Equal(t, 0, searcher.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchPool_SearchErrorIsRetryable(t *testing.T) {
	cfg := LoadConfig()
	searcher := &fakeSearcher{err: errors.New("cluster unreachable")}

	directory := NewDirectory(cfg, searcher, nil, logger.NewTestLogger(t))

	_, err := directory.FetchPool(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DIRECTORY_SEARCH_FAILED")
}

func TestFetchPool_TimeoutIsMappedToTimeoutError(t *testing.T) {
	cfg := LoadConfig()
	searcher := &fakeSearcher{err: context.DeadlineExceeded}

	directory := NewDirectory(cfg, searcher, nil, logger.NewTestLogger(t))

	_, err := directory.FetchPool(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DIRECTORY_TIMEOUT")
}

func TestFetchPool_SkipsUnreadableRecords(t *testing.T) {
	cfg := LoadConfig()
	sources := rawSources(t, directoryPool())
	sources = append(sources, json.RawMessage(`{"id": 42}`))
	searcher := &fakeSearcher{sources: sources}

	directory := NewDirectory(cfg, searcher, nil, logger.NewTestLogger(t))

	fetched, err := directory.FetchPool(context.Background())
	require.NoError(t, err)
	assert.Len(t, fetched, 2)
}
