// internal/workers/application/index-application/config.go
package indexapplication

import (
	"time"

	"social-support-intake/internal/common/config"
)

const DefaultIndex = "applications"

type Config struct {
	Index   string
	Timeout time.Duration
}

func LoadConfig(wcfg config.WorkerConfig, es config.ElasticsearchConfig) *Config {
	cfg := &Config{
		Index:   es.Index,
		Timeout: config.GetDuration(wcfg.Timeout),
	}
	if cfg.Index == "" {
		cfg.Index = DefaultIndex
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg
}
