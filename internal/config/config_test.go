package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HYPE_CONFIG", "")
	t.Setenv("HYPE_NOTIFIER", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("HYPE_WELCOME_GRANT", "")
	t.Setenv("HYPE_MONITOR_INTERVAL", "")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", c.Server.Port)
	assert.Equal(t, int64(500), c.Ledger.WelcomeGrant)
	assert.Equal(t, time.Hour, c.Ledger.MonitorInterval)
	assert.Equal(t, "store", c.Ledger.Notifier)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hype.yaml")
	yml := `
server:
  port: "9090"
database:
  host: db.internal
  dbname: hype
ledger:
  welcome_grant: 250
  monitor_interval: 15m
  notifier: log
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("HYPE_CONFIG", path)
	t.Setenv("APP_PORT", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("HYPE_MONITOR_INTERVAL", "")
	t.Setenv("HYPE_NOTIFIER", "")
	t.Setenv("HYPE_WELCOME_GRANT", "300")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", c.Server.Port)
	assert.Equal(t, "db.internal", c.Database.Host)
	assert.Equal(t, int64(300), c.Ledger.WelcomeGrant)
	assert.Equal(t, 15*time.Minute, c.Ledger.MonitorInterval)
	assert.Equal(t, "log", c.Ledger.Notifier)
	assert.Contains(t, c.DSN(), "host=db.internal")
	assert.Contains(t, c.DSN(), "dbname=hype")
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("HYPE_CONFIG", "")
	t.Setenv("HYPE_NOTIFIER", "")
	t.Setenv("HYPE_WELCOME_GRANT", "")
	t.Setenv("HYPE_MONITOR_INTERVAL", "")

	t.Setenv("APP_PORT", "99999")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("APP_PORT", "")
	t.Setenv("HYPE_WELCOME_GRANT", "lots")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("HYPE_WELCOME_GRANT", "")
	t.Setenv("HYPE_NOTIFIER", "pager")
	_, err = Load()
	assert.Error(t, err)
}
