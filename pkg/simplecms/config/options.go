package config

import (
	"fmt"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase sets the database URL ("memory" or postgres://...)
func WithDatabase(url string) Option {
	return func(c *ServerConfig) error {
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithStorage sets the storage URL (memory://, file:///dir, s3://bucket)
func WithStorage(url string) Option {
	return func(c *ServerConfig) error {
		if _, err := parseStorageURL(url); err != nil {
			return err
		}
		c.StorageURL = url
		return nil
	}
}

// WithS3 sets the S3 settings used when the storage URL is s3://
func WithS3(s3 S3Config) Option {
	return func(c *ServerConfig) error {
		c.S3 = s3
		return nil
	}
}

// WithPublicRoot sets the prefix prepended to relative file paths
func WithPublicRoot(root string) Option {
	return func(c *ServerConfig) error {
		c.PublicRoot = root
		return nil
	}
}

// WithContentTypesDir sets the directory content types are loaded from
func WithContentTypesDir(dir string) Option {
	return func(c *ServerConfig) error {
		c.ContentTypesDir = dir
		return nil
	}
}

// WithJWTSecret sets the delivery API token secret
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		return nil
	}
}

// WithAPIKeySHA256 sets the SHA-256 hex digest of the admin API key
func WithAPIKeySHA256(sum string) Option {
	return func(c *ServerConfig) error {
		c.APIKeySHA256 = sum
		return nil
	}
}

// WithScheduleSpec sets the cron spec the scheduler runs on
func WithScheduleSpec(spec string) Option {
	return func(c *ServerConfig) error {
		c.ScheduleSpec = spec
		return nil
	}
}

// WithNotifications enables or disables application notifications
func WithNotifications(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableNotifications = enabled
		return nil
	}
}
