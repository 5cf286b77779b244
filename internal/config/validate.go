package config

import (
	"fmt"
	"strings"
)

// ConfigurationError reports an invalid run configuration. It is always
// raised before any candidate listing or deletion happens.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Validate checks every field needed for a run and returns the parsed table
// location.
func (c *Config) Validate() (TableLocation, error) {
	loc, err := ParseTableLocation(c.Table)
	if err != nil {
		return TableLocation{}, err
	}

	if c.ChunkSize < 1 {
		return TableLocation{}, &ConfigurationError{Field: "chunk_size", Reason: fmt.Sprintf("must be >= 1, got %d", c.ChunkSize)}
	}
	if c.Parallelism < 1 {
		return TableLocation{}, &ConfigurationError{Field: "parallelism", Reason: fmt.Sprintf("must be >= 1, got %d", c.Parallelism)}
	}
	if c.RetentionPeriodHours < 0 {
		return TableLocation{}, &ConfigurationError{Field: "retention_period_hours", Reason: fmt.Sprintf("must be >= 0, got %d", c.RetentionPeriodHours)}
	}
	if c.RetentionPeriodHours > MaxRetentionPeriodHours {
		return TableLocation{}, &ConfigurationError{Field: "retention_period_hours", Reason: fmt.Sprintf("must be <= %d, got %d", MaxRetentionPeriodHours, c.RetentionPeriodHours)}
	}
	if c.ChunkTimeout < 0 {
		return TableLocation{}, &ConfigurationError{Field: "chunk_timeout", Reason: "must not be negative"}
	}

	switch strings.ToLower(c.Storage.Type) {
	case "", "s3", "minio":
	default:
		return TableLocation{}, &ConfigurationError{Field: "storage.type", Reason: fmt.Sprintf("unsupported storage type %q", c.Storage.Type)}
	}
	if loc.Scheme() != "file" && !strings.EqualFold(c.Storage.Type, "minio") && c.ChunkSize > MaxS3ChunkSize {
		return TableLocation{}, &ConfigurationError{Field: "chunk_size", Reason: fmt.Sprintf("must be <= %d for s3 storage, got %d", MaxS3ChunkSize, c.ChunkSize)}
	}
	if strings.EqualFold(c.Storage.Type, "minio") && c.Storage.Endpoint == "" && loc.Scheme() != "file" {
		return TableLocation{}, &ConfigurationError{Field: "storage.endpoint", Reason: "required for minio storage"}
	}
	if (c.Storage.AccessKey == "") != (c.Storage.SecretKey == "") {
		return TableLocation{}, &ConfigurationError{Field: "storage.access_key", Reason: "access_key and secret_key must be set together"}
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return TableLocation{}, &ConfigurationError{Field: "log.level", Reason: fmt.Sprintf("unsupported level %q", c.Log.Level)}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return TableLocation{}, &ConfigurationError{Field: "log.format", Reason: fmt.Sprintf("unsupported format %q", c.Log.Format)}
	}

	for i, n := range c.Notifications {
		if strings.TrimSpace(n.Type) == "" {
			return TableLocation{}, &ConfigurationError{Field: fmt.Sprintf("notifications[%d].type", i), Reason: "is required"}
		}
	}

	return loc, nil
}
