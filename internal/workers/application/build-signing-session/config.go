package buildsigningsession

import "time"

type Config struct {
	Timeout time.Duration
	// PublicBaseURL is the wizard origin the signer returns to, unless the tenant sets its own.
	PublicBaseURL string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
