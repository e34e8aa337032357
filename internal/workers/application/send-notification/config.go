// internal/workers/application/send-notification/config.go
package sendnotification

import (
	"time"

	"social-support-intake/internal/common/config"
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	Timeout      time.Duration
}

func LoadConfig(wcfg config.WorkerConfig, ncfg config.NotificationConfig) *Config {
	cfg := &Config{
		EmailEnabled: ncfg.Email.Enabled,
		SMSEnabled:   ncfg.SMS.Enabled,
		FromEmail:    ncfg.Email.FromEmail,
		Timeout:      config.GetDuration(wcfg.Timeout),
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg
}
