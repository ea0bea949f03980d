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
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.Equal(t, time.Second, cfg.RedirectDelay)
	assert.Zero(t, cfg.RequestTimeout)
	assert.Equal(t, "INR", cfg.Currency)
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), ".indicompute", "session.yaml"), cfg.SessionFile)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: https://api.example.com/
poll_interval: 5s
session_file: /tmp/sess.yaml
`), 0o600))
	t.Setenv("INDICOMPUTE_LOG_LEVEL", "debug")

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, "/tmp/sess.yaml", cfg.SessionFile)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejects(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad scheme", func(t *testing.T) {
		v := New()
		v.Set(KeyAPIURL, "ftp://x")
		_, err := Load(v, "")
		assert.ErrorContains(t, err, "api_url")
	})

	t.Run("zero poll interval", func(t *testing.T) {
		v := New()
		v.Set(KeyPollInterval, "0s")
		_, err := Load(v, "")
		assert.ErrorContains(t, err, "poll_interval")
	})
}
