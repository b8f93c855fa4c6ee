// Package config handles configuration for the pilotkeeper server:
// defaults, JSON overlay, environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds runtime settings for the pilotkeeper server.
//
// Fields:
//   - EndpointAddrHTTP: bind address of the HTTP API.
//   - DatabaseDriver / DatabaseDSN: "sqlite" (modernc) or "postgres" (pgx) and its DSN.
//   - SecretKey: HMAC secret for signing JWTs (HS256).
//   - SessionSecret: HMAC secret for signing session cookies.
//   - TokenValidityDuration / SessionValidityDuration: token and session lifetimes.
//   - ArtifactBackend: "local" (ArtifactDir) or "s3" (S3* settings) fingerprint image storage.
//   - MaxRequestBytes: upper bound on request bodies, uploads included.
//   - PasswordCost: bcrypt cost for stored password hashes.
//   - PurgeArtifactsOnDelete: also remove the fingerprint image when a record is deleted.
//   - CORSOrigins: allowed origins, empty or "*" reflects any origin.
//   - LogLevel: debug, info, warn or error.
//
// Do not run with the default secrets outside development.
type Config struct {
	EndpointAddrHTTP        string        `env:"PILOTKEEPER_ADDR"`
	DatabaseDriver          string        `env:"PILOTKEEPER_DB_DRIVER"`
	DatabaseDSN             string        `env:"PILOTKEEPER_DB_DSN"`
	SecretKey               string        `env:"PILOTKEEPER_JWT_SECRET"`
	SessionSecret           string        `env:"PILOTKEEPER_SESSION_SECRET"`
	TokenValidityDuration   time.Duration `env:"PILOTKEEPER_TOKEN_TTL"`
	SessionValidityDuration time.Duration `env:"PILOTKEEPER_SESSION_TTL"`
	ArtifactBackend         string        `env:"PILOTKEEPER_ARTIFACT_BACKEND"`
	ArtifactDir             string        `env:"PILOTKEEPER_ARTIFACT_DIR"`
	S3RootUser              string        `env:"PILOTKEEPER_S3_USER"`
	S3RootPassword          string        `env:"PILOTKEEPER_S3_PASSWORD"`
	S3Bucket                string        `env:"PILOTKEEPER_S3_BUCKET"`
	S3Region                string        `env:"PILOTKEEPER_S3_REGION"`
	S3BaseEndpoint          string        `env:"PILOTKEEPER_S3_ENDPOINT"`
	MaxRequestBytes         int64         `env:"PILOTKEEPER_MAX_REQUEST_BYTES"`
	PasswordCost            int           `env:"PILOTKEEPER_PASSWORD_COST"`
	PurgeArtifactsOnDelete  bool          `env:"PILOTKEEPER_PURGE_ARTIFACTS_ON_DELETE"`
	CORSOrigins             []string      `env:"PILOTKEEPER_CORS_ORIGINS" envSeparator:","`
	LogLevel                string        `env:"PILOTKEEPER_LOG_LEVEL"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	BackendLocal = "local"
	BackendS3    = "s3"
)

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":3000"
	c.DatabaseDriver = DriverSQLite
	c.DatabaseDSN = "file:pilotkeeper.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	c.SecretKey = "secretKey"
	c.SessionSecret = "sessionSecretKey"
	c.TokenValidityDuration = 15 * 24 * time.Hour
	c.SessionValidityDuration = 15 * 24 * time.Hour
	c.ArtifactBackend = BackendLocal
	c.ArtifactDir = "uploads"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "fingerprints"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.MaxRequestBytes = 5 << 20
	c.PasswordCost = 10
	c.PurgeArtifactsOnDelete = false
	c.CORSOrigins = nil
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, then overlays an optional JSON
// file, environment variables and finally command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	switch c.ArtifactBackend {
	case BackendLocal, BackendS3:
	default:
		return fmt.Errorf("unsupported artifact backend %q", c.ArtifactBackend)
	}
	if c.SecretKey == "" || c.SessionSecret == "" {
		return errors.New("secret key and session secret must be set")
	}
	if c.TokenValidityDuration <= 0 || c.SessionValidityDuration <= 0 {
		return errors.New("token and session validity must be positive")
	}
	if c.MaxRequestBytes <= 0 {
		return errors.New("max request bytes must be positive")
	}
	return nil
}
