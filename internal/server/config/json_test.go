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

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"http_addr":                  "www.example:9000",
		"database_dsn":               "postgres://db",
		"secret_key":                 "my_secret_key",
		"session_ttl":                "2h",
		"s3_bucket":                  "bucket",
		"max_upload_bytes":           2048,
		"allowed_extensions":         []string{"pdf"},
		"token_bytes":                48,
		"smtp_host":                  "smtp.example",
		"mail_timeout":               "3s",
		"allow_insecure_auto_verify": true,
		"registration_policy":        "strict",
		"allow_list":                 []string{"ana@x.com"},
		"allow_list_file":            "allow.yaml",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.HTTPAddr)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, int64(2048), cfg.MaxUploadBytes)
		assert.Equal(t, []string{"pdf"}, cfg.AllowedExtensions)
		assert.Equal(t, 48, cfg.TokenBytes)
		assert.Equal(t, "smtp.example", cfg.SMTPHost)
		assert.Equal(t, 3*time.Second, cfg.MailTimeout)
		assert.True(t, cfg.AllowInsecureAutoVerify)
		assert.Equal(t, "strict", cfg.RegistrationPolicy)
		assert.Equal(t, []string{"ana@x.com"}, cfg.AllowList)
		assert.Equal(t, "allow.yaml", cfg.AllowListFile)

		// absent keys keep defaults
		assert.Equal(t, "us-east-1", cfg.S3Region)
		assert.Equal(t, 587, cfg.SMTPPort)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			HTTPAddr:    "defaults:1234",
			DatabaseDSN: "postgres://defaults",
			SecretKey:   "key",
			SessionTTL:  2 * time.Minute,
			S3Bucket:    "s3bucket",
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.HTTPAddr)
		assert.Equal(t, "postgres://defaults", cfg.DatabaseDSN)
		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, 2*time.Minute, cfg.SessionTTL)
		assert.Equal(t, "s3bucket", cfg.S3Bucket)
	})

	t.Run("explicit false overrides", func(t *testing.T) {
		p := writeTempJSON(t, dir, "false.json", map[string]any{"allow_insecure_auto_verify": false})
		os.Args = []string{"testbin", "-c", p}

		cfg := &Config{AllowInsecureAutoVerify: true}
		parseJson(cfg)
		assert.False(t, cfg.AllowInsecureAutoVerify)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
