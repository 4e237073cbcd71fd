// Package nats provides NATS JetStream integration for publishing run
// summaries.
package nats

import (
	"time"
)

// Config holds NATS connection and stream configuration.
type Config struct {
	// Enabled turns run summary publishing on.
	Enabled bool `env:"NATS_ENABLED" envDefault:"false"`

	// URL is the NATS server URL (e.g., "nats://localhost:4222")
	URL string `env:"NATS_URL" envDefault:"nats://localhost:4222"`

	// Name is the client connection name for monitoring
	Name string `env:"NATS_CLIENT_NAME" envDefault:"linededup-server"`

	// MaxReconnects is the maximum number of reconnection attempts
	MaxReconnects int `env:"NATS_MAX_RECONNECTS" envDefault:"60"`

	// ReconnectWait is the time to wait between reconnection attempts
	ReconnectWait time.Duration `env:"NATS_RECONNECT_WAIT" envDefault:"2s"`

	// Timeout is the connection timeout
	Timeout time.Duration `env:"NATS_TIMEOUT" envDefault:"5s"`

	// PublishTimeout bounds a single summary publish.
	PublishTimeout time.Duration `env:"NATS_PUBLISH_TIMEOUT" envDefault:"2s"`

	// Stream configuration
	Stream StreamConfig `envPrefix:"NATS_STREAM_"`
}

// StreamConfig holds JetStream stream configuration.
type StreamConfig struct {
	// Name is the stream name
	Name string `env:"NAME" envDefault:"DEDUP_RUNS"`

	// Subjects are the subjects to capture
	Subjects []string `env:"SUBJECTS" envDefault:"dedup.runs.>"`

	// MaxAge is the maximum age of messages in the stream
	MaxAge time.Duration `env:"MAX_AGE" envDefault:"168h"` // 7 days

	// MaxBytes is the maximum size of the stream in bytes
	MaxBytes int64 `env:"MAX_BYTES" envDefault:"268435456"` // 256MB

	// Replicas is the number of replicas for the stream
	Replicas int `env:"REPLICAS" envDefault:"1"`

	// Storage is the storage type (file or memory)
	Storage string `env:"STORAGE" envDefault:"file"`
}

// DefaultConfig returns the configuration the env defaults describe.
func DefaultConfig() Config {
	return Config{
		URL:            "nats://localhost:4222",
		Name:           "linededup-server",
		MaxReconnects:  60,
		ReconnectWait:  2 * time.Second,
		Timeout:        5 * time.Second,
		PublishTimeout: 2 * time.Second,
		Stream: StreamConfig{
			Name:     "DEDUP_RUNS",
			Subjects: []string{"dedup.runs.>"},
			MaxAge:   168 * time.Hour,
			MaxBytes: 256 << 20,
			Replicas: 1,
			Storage:  "file",
		},
	}
}
