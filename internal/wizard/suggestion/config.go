// internal/wizard/suggestion/config.go
package suggestion

import (
	"time"

	"social-support-intake/internal/common/config"
)

type Config struct {
	BaseURL       string
	APIKey        string
	Model         string
	Timeout       time.Duration
	Temperature   float64
	MaxTokens     int
	FallbackDelay time.Duration
}

// ConfigFrom converts the loaded GenAI settings.
func ConfigFrom(cfg config.GenAIConfig) Config {
	return Config{
		BaseURL:       cfg.BaseURL,
		APIKey:        cfg.APIKey,
		Model:         cfg.Model,
		Timeout:       config.GetDuration(cfg.Timeout),
		Temperature:   cfg.Temperature,
		MaxTokens:     cfg.MaxTokens,
		FallbackDelay: config.GetDuration(cfg.FallbackDelay),
	}
}
