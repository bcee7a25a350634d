package feed_api_config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_WEBHOOK_SECRET", "s3cret")
	t.Setenv("TELEGRAM_CHANNEL", "@MyChannel")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Feed.DefaultLimit)
	assert.Equal(t, 30, cfg.Feed.MaxLimit)
	assert.Equal(t, 10*time.Second, cfg.Feed.CacheMaxAge)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 2*time.Second, cfg.DB.QueryTimeout)
	assert.Equal(t, "MyChannel", cfg.Telegram.Channel, "leading @ is dropped")
	assert.False(t, cfg.Events.Enable)
}

func TestLoad_FileAndEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("FEED_MAX_LIMIT", "50")

	path := filepath.Join(t.TempDir(), "feed-api.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
feed:
  default_limit: 10
  max_limit: 20
store:
  driver: sqlite
  sqlite_path: /tmp/x.db
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Feed.DefaultLimit)
	assert.Equal(t, 50, cfg.Feed.MaxLimit, "env overrides file")
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
}

func TestLoad_MissingFileFallsBack(t *testing.T) {
	setRequired(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"no secret", map[string]string{"TELEGRAM_WEBHOOK_SECRET": "", "TELEGRAM_CHANNEL": "c"}},
		{"no channel", map[string]string{"TELEGRAM_WEBHOOK_SECRET": "s", "TELEGRAM_CHANNEL": "@"}},
		{"default above max", map[string]string{"FEED_DEFAULT_LIMIT": "40"}},
		{"zero default", map[string]string{"FEED_DEFAULT_LIMIT": "0"}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "mongo"}},
		{"events on sqlite", map[string]string{"STORE_DRIVER": "sqlite", "EVENTS_ENABLE": "true"}},
		{"negative rps", map[string]string{"SERVER_FEED_RPS": "-1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			var cfgErr ErrConfig
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}
