package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.APIPort)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "data/adsnap.db", cfg.Database.Path)
	assert.Equal(t, 24, cfg.Session.TTLHours)
	assert.Equal(t, "https://engine.prod.bria-api.com/v1", cfg.Bria.BaseURL)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTP.Server)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.False(t, cfg.ArchiveEnabled())
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
apiPort: 9090
database:
  type: postgres
  host: db.internal
  port: "5432"
  name: adsnap
  user: adsnap
  password: hunter22
session:
  secret: long-random-secret
  ttlHours: 8
bria:
  apiKey: bria-key
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.APIPort)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "long-random-secret", cfg.Session.Secret)
	assert.Equal(t, 8, cfg.Session.TTLHours)
	assert.Equal(t, "bria-key", cfg.Bria.APIKey)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.APIPort)
}

func TestArchiveEnabled(t *testing.T) {
	path := writeConfig(t, `
s3:
  endpoint: https://nyc3.digitaloceanspaces.com
  region: nyc3
  bucket: adsnap-images
  accessKeyId: key
  secretAccessKey: secret
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.ArchiveEnabled())
}
