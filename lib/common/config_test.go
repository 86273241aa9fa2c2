package common

import (
	"testing"

	"github.com/ValentinKolb/kvbase/lib/perm"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDefaults(t *testing.T) {
	cfg, err := Decode(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestDecodeWeaklyTyped(t *testing.T) {
	// values from the environment arrive as strings
	cfg, err := Decode(map[string]any{
		"db-path":          "/var/lib/kvbase",
		"log-level":        "debug",
		"perm":             "read",
		"local-perms":      "sales=write,tmp_*=none",
		"evict-idle":       "false",
		"badger-cache-mb":  "64",
		"badger-in-memory": "true",
	})
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/kvbase", cfg.DBPath)
	assert.False(t, cfg.EvictIdle)
	assert.Equal(t, int64(64), cfg.BadgerCacheMB)
	assert.True(t, cfg.BadgerInMemory)

	u, err := cfg.User("local")
	require.NoError(t, err)
	assert.Equal(t, perm.Write, u.Level("sales"))
	assert.Equal(t, perm.None, u.Level("tmp_1"))
	assert.Equal(t, perm.Read, u.Level("other"))
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
	}{
		{"EmptyPath", map[string]any{"db-path": ""}},
		{"BadLogLevel", map[string]any{"log-level": "verbose"}},
		{"BadPerm", map[string]any{"perm": "root"}},
		{"BadLocalPerm", map[string]any{"local-perms": "sales"}},
		{"BadLocalLevel", map[string]any{"local-perms": "sales=owner"}},
		{"NegativeCache", map[string]any{"badger-cache-mb": -1}},
		{"WrongType", map[string]any{"evict-idle": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.settings)
			assert.Error(t, err)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, logger.WARNING, level)

	_, err = ParseLogLevel("loud")
	assert.Error(t, err)
}
