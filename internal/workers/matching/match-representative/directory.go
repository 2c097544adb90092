// internal/workers/matching/match-representative/directory.go
package matchrepresentative

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	commonerrors "immigration-workers/internal/common/errors"
	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/models"
)

// DirectorySearcher is the Elasticsearch surface the directory needs.
type DirectorySearcher interface {
	Search(ctx context.Context, index string, query map[string]interface{}) ([]json.RawMessage, error)
}

// SnapshotCache is the Redis surface used for pool snapshots.
type SnapshotCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// Directory retrieves the candidate pool from the representative index with
// a short-lived cache in front of it.
type Directory struct {
	searcher DirectorySearcher
	cache    SnapshotCache
	config   *Config
	logger   logger.Logger
}

func NewDirectory(config *Config, searcher DirectorySearcher, cache SnapshotCache, log logger.Logger) *Directory {
	return &Directory{
		searcher: searcher,
		cache:    cache,
		config:   config,
		logger:   log,
	}
}

// FetchPool returns the available representatives, preferring the cached
// snapshot. Cache failures degrade to a direct search.
func (d *Directory) FetchPool(ctx context.Context) ([]models.RepresentativeCandidate, error) {
	if d.cache != nil {
		if cached, err := d.cache.Get(ctx, d.config.PoolCacheKey); err == nil && cached != "" {
			var pool []models.RepresentativeCandidate
			if err := json.Unmarshal([]byte(cached), &pool); err == nil {
				return pool, nil
			}
			d.logger.Warn("discarding unreadable pool snapshot", map[string]interface{}{
				"cacheKey": d.config.PoolCacheKey,
			})
		}
	}

	query := map[string]interface{}{
		"size": d.config.PoolSize,
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				"availability": models.AvailabilityAvailable,
			},
		},
	}

	sources, err := d.searcher.Search(ctx, d.config.DirectoryIndex, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, commonerrors.NewDirectoryTimeoutError()
		}
		return nil, commonerrors.NewDirectorySearchFailedError(err)
	}

	pool := make([]models.RepresentativeCandidate, 0, len(sources))
	for _, source := range sources {
		var candidate models.RepresentativeCandidate
		if err := json.Unmarshal(source, &candidate); err != nil {
			d.logger.Warn("skipping unreadable directory record", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		pool = append(pool, candidate)
	}

	if d.cache != nil {
		if snapshot, err := json.Marshal(pool); err == nil {
			if err := d.cache.Set(ctx, d.config.PoolCacheKey, string(snapshot), d.config.PoolCacheTTL); err != nil {
				d.logger.Warn("failed to cache pool snapshot", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}

	return pool, nil
}
