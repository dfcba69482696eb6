package validateapplicationdata

import "time"

type Config struct {
	Timeout time.Duration
	// Now is the clock for the fiscal-year and past-date rules.
	Now func() time.Time
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
		Now:     time.Now,
	}
}
