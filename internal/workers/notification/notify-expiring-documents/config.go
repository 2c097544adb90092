// internal/workers/notification/notify-expiring-documents/config.go
package notifyexpiringdocuments

import (
	"time"

	commonconfig "immigration-workers/internal/common/config"
)

type Config struct {
	Timeout      time.Duration
	SenderEmail  string
	EmailEnabled bool
	SMSEnabled   bool
}

func LoadConfig(notifications commonconfig.NotificationConfig) *Config {
	return &Config{
		Timeout:      10 * time.Second,
		SenderEmail:  notifications.SenderEmail,
		EmailEnabled: notifications.EmailEnabled,
		SMSEnabled:   notifications.SMSEnabled,
	}
}
