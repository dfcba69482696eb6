// internal/workers/application/send-notification/config.go
package sendnotification

import "time"

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	// StaffPhone receives a text message per notification when SMS is enabled.
	StaffPhone string
	// StaffTopicARN, when set, receives every notification for staff subscribers.
	StaffTopicARN string
	Timeout       time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
