package crmcontactsync

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	LeadSource string        `mapstructure:"lead_source"`
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:    30 * time.Second,
		LeadSource: "Subsidie wizard",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
