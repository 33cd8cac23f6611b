package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "content", cfg.Dirs.Content)
	assert.Equal(t, "templates", cfg.Dirs.Templates)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 1024, cfg.Cache.MaxEntries)
	assert.True(t, cfg.Development())
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "localhost:8080", cfg.Addr())
}

func TestLoadProductionDefaultsToJSONLogs(t *testing.T) {
	resetViper(t)
	viper.Set("mode", ModeProduction)

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Development())
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadRejectsBadValues(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value any
	}{
		{"port out of range", "server.port", 70000},
		{"dangerous host", "server.host", "local;host"},
		{"unknown mode", "mode", "staging"},
		{"traversal in content dir", "dirs.content", "../../etc"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resetViper(t)
			viper.Set(tc.key, tc.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
