// internal/workers/matching/match-representative/config.go
package matchrepresentative

import "time"

type Config struct {
	Timeout time.Duration

	// DirectoryIndex is the Elasticsearch index holding the representative
	// directory; PoolCacheKey/PoolCacheTTL control the Redis snapshot cache.
	DirectoryIndex string
	PoolCacheKey   string
	PoolCacheTTL   time.Duration
	PoolSize       int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        10 * time.Second,
		DirectoryIndex: "representatives",
		PoolCacheKey:   "matching:candidate-pool",
		PoolCacheTTL:   5 * time.Minute,
		PoolSize:       200,
	}
}
