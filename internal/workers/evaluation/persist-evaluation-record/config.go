// internal/workers/evaluation/persist-evaluation-record/config.go
package persistevaluationrecord

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
