package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestMustLoad(t *testing.T) {
	t.Run("Fills in defaults", func(t *testing.T) {
		// Given: a config that only sets the redis host
		path := writeConfig(t, "redis:\n  host: redis\n")

		// When: loading it
		conf := MustLoad(path)

		// Then: every other field has its default
		assert.Equal(t, "info", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, "7777", conf.SocketPort)
		assert.Equal(t, 30*time.Second, conf.ReconnectTimeout)
		assert.Equal(t, 1500*time.Millisecond, conf.Bot.Delay)
		assert.Equal(t, "redis:6379", conf.Redis.GetRedisAddr())
	})

	t.Run("Reads values from the file", func(t *testing.T) {
		// Given: a full config
		path := writeConfig(t, `log-level: debug
http-port: "8080"
socket-port: "8081"
reconnect-timeout: 1m
redis:
  host: cache
  port: "6380"
bot:
  delay: 250ms
`)

		// When: loading it
		conf := MustLoad(path)

		// Then: the file wins over defaults
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "8080", conf.HTTPPort)
		assert.Equal(t, "8081", conf.SocketPort)
		assert.Equal(t, time.Minute, conf.ReconnectTimeout)
		assert.Equal(t, 250*time.Millisecond, conf.Bot.Delay)
		assert.Equal(t, "cache:6380", conf.Redis.GetRedisAddr())
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		// Given: a config and an environment variable for the bot delay
		path := writeConfig(t, "bot:\n  delay: 250ms\n")
		t.Setenv("BOT_DELAY", "2s")

		// When: loading it
		conf := MustLoad(path)

		// Then: the environment wins
		assert.Equal(t, 2*time.Second, conf.Bot.Delay)
	})

	t.Run("Panics without a file", func(t *testing.T) {
		// Given: a path to nothing
		path := filepath.Join(t.TempDir(), "missing.yml")

		// When / Then: loading panics
		assert.Panics(t, func() { MustLoad(path) })
	})
}
