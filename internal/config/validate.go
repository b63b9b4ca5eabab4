package config

import (
	"fmt"
	"strings"
)

const minPasswordIterations = 100_000

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.PasswordIterations < minPasswordIterations {
		return fmt.Errorf("auth.password_iterations must be >= %d (got %d)", minPasswordIterations, c.Auth.PasswordIterations)
	}

	if err := c.Database.validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.ObjectStore.validate(); err != nil {
		return fmt.Errorf("object_store: %w", err)
	}
	if err := c.Analysis.validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	switch d.Driver {
	case DriverPostgres:
		if strings.TrimSpace(d.DSN) == "" {
			return fmt.Errorf("dsn is required for driver %q", d.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown driver %q (want %q or %q)", d.Driver, DriverPostgres, DriverMemory)
	}
	return nil
}

func (o *ObjectStoreConfig) validate() error {
	switch o.Backend {
	case ObjectStoreFS:
		if strings.TrimSpace(o.Root) == "" {
			return fmt.Errorf("root is required for backend %q", o.Backend)
		}
	case ObjectStoreS3:
		if o.S3Bucket == "" {
			return fmt.Errorf("s3_bucket is required for backend %q", o.Backend)
		}
		if o.S3Region == "" {
			return fmt.Errorf("s3_region is required for backend %q", o.Backend)
		}
		if (o.S3AccessKey == "") != (o.S3SecretKey == "") {
			return fmt.Errorf("s3_access_key and s3_secret_key must be set together")
		}
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", o.Backend, ObjectStoreFS, ObjectStoreS3)
	}
	return nil
}

func (a *AnalysisConfig) validate() error {
	if a.DefaultRuleset == "" {
		return fmt.Errorf("default_ruleset is required")
	}
	if a.IndexExcerptChars <= 0 {
		return fmt.Errorf("index_excerpt_chars must be > 0 (got %d)", a.IndexExcerptChars)
	}
	if a.BulkWorkers <= 0 {
		return fmt.Errorf("bulk_workers must be > 0 (got %d)", a.BulkWorkers)
	}
	return nil
}
