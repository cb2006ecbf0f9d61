// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration.
type Config struct {
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port int    `envconfig:"PORT" default:"3000"`

	// SendQueueSize bounds the per-client outbound queue; a member
	// falling this far behind is disconnected.
	SendQueueSize int `envconfig:"SEND_QUEUE_SIZE" default:"64"`

	// ReadLimit caps the size of a single incoming message in bytes.
	ReadLimit int64 `envconfig:"READ_LIMIT" default:"1048576"`

	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"10s"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
