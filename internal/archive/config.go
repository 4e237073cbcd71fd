// Package archive stores cleaned output in S3-compatible object storage.
package archive

import (
	"time"
)

// Config holds archive configuration. The top-level config nests it under
// the ARCHIVE_ prefix.
type Config struct {
	// Enabled turns archiving of accepted runs on.
	Enabled bool `env:"ENABLED" envDefault:"false"`

	// UploadTimeout bounds a single PutObject call.
	UploadTimeout time.Duration `env:"UPLOAD_TIMEOUT" envDefault:"10s"`

	// S3 configuration
	S3 S3Config `envPrefix:"S3_"`
}

// S3Config holds S3/MinIO configuration.
type S3Config struct {
	// Endpoint is the S3 endpoint URL (e.g., "http://localhost:9000" for MinIO)
	Endpoint string `env:"ENDPOINT" envDefault:"http://localhost:9000"`

	// Region is the AWS region
	Region string `env:"REGION" envDefault:"us-east-1"`

	// Bucket is the S3 bucket name
	Bucket string `env:"BUCKET" envDefault:"linededup-cleaned"`

	// AccessKeyID is the AWS access key ID
	AccessKeyID string `env:"ACCESS_KEY_ID" envDefault:"minioadmin"`

	// SecretAccessKey is the AWS secret access key
	SecretAccessKey string `env:"SECRET_ACCESS_KEY" envDefault:"minioadmin"`

	// UsePathStyle enables path-style addressing (required for MinIO)
	UsePathStyle bool `env:"USE_PATH_STYLE" envDefault:"true"`

	// Prefix is the key prefix for all objects
	Prefix string `env:"PREFIX" envDefault:"cleaned"`
}
