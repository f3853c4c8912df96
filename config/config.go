package config

import (
	"sync"
	"time"
)

// Config holds process-wide settings shared by every HMC pipeline. It is
// populated once from the command line and treated as read-only afterwards.
type Config struct {
	// HMCScheme is used when an inventory entry does not carry a scheme.
	HMCScheme string
	// HMCTimeout bounds a single HMC's full collection pipeline unless the
	// inventory entry overrides it.
	HMCTimeout time.Duration
	// SSLVerify enables TLS certificate verification of HMC endpoints.
	SSLVerify bool
	// User and Pass are the static fallback credentials used when neither
	// the credential cache nor vault has an entry for a target.
	User string
	Pass string
	// Concurrency bounds how many HMC pipelines run at once.
	Concurrency int
}

var (
	config *Config
	once   sync.Once
)

func NewConfig(c *Config) {
	once.Do(func() {
		if c != nil {
			config = c
		} else {
			config = &Config{}
		}
	})
}

func GetConfig() *Config {
	if config != nil {
		return config
	}

	NewConfig(nil)
	return config
}
