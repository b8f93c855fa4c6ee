package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{
		"endpoint_addr_http":        "www.example:9000",
		"database_driver":           "postgres",
		"database_dsn":              "postgres://u:p@db/pilots",
		"secret_key":                "my_secret_key",
		"session_secret":            "my_session_secret",
		"token_validity_duration":   "24h",
		"session_validity_duration": "1h",
		"artifact_backend":          "s3",
		"artifact_dir":              "/srv/uploads",
		"s3_root_user":              "user",
		"s3_root_password":          "password",
		"s3_bucket":                 "bucket",
		"s3_region":                 "region",
		"s3_base_endpoint":          "base_endpoint",
		"max_request_bytes":         2048,
		"password_cost":             12,
		"purge_artifacts_on_delete": true,
		"cors_origins":              []string{"http://ui.example"},
		"log_level":                 "warn",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrHTTP)
		assert.Equal(t, "postgres", cfg.DatabaseDriver)
		assert.Equal(t, "postgres://u:p@db/pilots", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, "my_session_secret", cfg.SessionSecret)
		assert.Equal(t, 24*time.Hour, cfg.TokenValidityDuration)
		assert.Equal(t, time.Hour, cfg.SessionValidityDuration)
		assert.Equal(t, "s3", cfg.ArtifactBackend)
		assert.Equal(t, "/srv/uploads", cfg.ArtifactDir)
		assert.Equal(t, "user", cfg.S3RootUser)
		assert.Equal(t, "password", cfg.S3RootPassword)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "region", cfg.S3Region)
		assert.Equal(t, "base_endpoint", cfg.S3BaseEndpoint)
		assert.Equal(t, int64(2048), cfg.MaxRequestBytes)
		assert.Equal(t, 12, cfg.PasswordCost)
		assert.True(t, cfg.PurgeArtifactsOnDelete)
		assert.Equal(t, []string{"http://ui.example"}, cfg.CORSOrigins)
		assert.Equal(t, "warn", cfg.LogLevel)
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		partial := writeTempJSON(t, map[string]any{"secret_key": "only-this"})
		os.Args = []string{"testbin", "-c", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "only-this", cfg.SecretKey)
		assert.Equal(t, ":3000", cfg.EndpointAddrHTTP)
		assert.Equal(t, 15*24*time.Hour, cfg.TokenValidityDuration)
		assert.Equal(t, 10, cfg.PasswordCost)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddrHTTP: "defaults:1234", SecretKey: "key"}
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, "key", cfg.SecretKey)
	})

	t.Run("invalid JSON → error", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		os.Args = []string{"testbin", "-config", bad}

		require.Error(t, parseJson(&Config{}))
	})
}
