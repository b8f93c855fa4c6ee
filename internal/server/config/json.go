package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/pilotkeeper/internal/flagx"
	"github.com/dmitrijs2005/pilotkeeper/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations accept "360h" style
// strings or integer nanoseconds; pointers distinguish "absent" from zero.
type JsonConfig struct {
	EndpointAddrHTTP        string          `json:"endpoint_addr_http"`
	DatabaseDriver          string          `json:"database_driver"`
	DatabaseDSN             string          `json:"database_dsn"`
	SecretKey               string          `json:"secret_key"`
	SessionSecret           string          `json:"session_secret"`
	TokenValidityDuration   *timex.Duration `json:"token_validity_duration"`
	SessionValidityDuration *timex.Duration `json:"session_validity_duration"`
	ArtifactBackend         string          `json:"artifact_backend"`
	ArtifactDir             string          `json:"artifact_dir"`
	S3RootUser              string          `json:"s3_root_user"`
	S3RootPassword          string          `json:"s3_root_password"`
	S3Bucket                string          `json:"s3_bucket"`
	S3Region                string          `json:"s3_region"`
	S3BaseEndpoint          string          `json:"s3_base_endpoint"`
	MaxRequestBytes         *int64          `json:"max_request_bytes"`
	PasswordCost            *int            `json:"password_cost"`
	PurgeArtifactsOnDelete  *bool           `json:"purge_artifacts_on_delete"`
	CORSOrigins             []string        `json:"cors_origins"`
	LogLevel                string          `json:"log_level"`
}

// parseJson loads the file named by -c/-config and copies every field it
// sets into config. Without the flag nothing happens.
func parseJson(config *Config) error {
	path := flagx.ConfigFileFlag(os.Args[1:])
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.SessionSecret, c.SessionSecret)
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.SessionValidityDuration != nil {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	setString(&config.ArtifactBackend, c.ArtifactBackend)
	setString(&config.ArtifactDir, c.ArtifactDir)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.MaxRequestBytes != nil {
		config.MaxRequestBytes = *c.MaxRequestBytes
	}
	if c.PasswordCost != nil {
		config.PasswordCost = *c.PasswordCost
	}
	if c.PurgeArtifactsOnDelete != nil {
		config.PurgeArtifactsOnDelete = *c.PurgeArtifactsOnDelete
	}
	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
