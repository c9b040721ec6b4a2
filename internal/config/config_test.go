package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults match the documented sync and model settings", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 6*time.Hour, cfg.Sync.Interval)
		assert.Equal(t, SyncScopeGlobal, cfg.Sync.Scope)
		assert.Equal(t, 250, cfg.Model.Trees)
		assert.Equal(t, 14, cfg.Model.MaxDepth)
		assert.InDelta(t, 0.2, cfg.Model.TestFraction, 1e-9)
		assert.Equal(t, 90, cfg.Model.MaxHorizonDays)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("SYNC_CACHE_SCOPE", SyncScopePair)
		t.Setenv("SYNC_INTERVAL", "30m")
		t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
		t.Setenv("SYNC_WATCH", "Onion:Pune,Tomato:Nashik")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.Server.Port)
		assert.Equal(t, SyncScopePair, cfg.Sync.Scope)
		assert.Equal(t, 30*time.Minute, cfg.Sync.Interval)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
		assert.Len(t, cfg.Sync.Watch, 2)
	})

	t.Run("invalid scope is rejected", func(t *testing.T) {
		t.Setenv("SYNC_CACHE_SCOPE", "everywhere")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sync.scope")
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: "7070"
model:
  trees: 50
  max_depth: 8
sync:
  scope: pair
  watch:
    - "Onion:Pune"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 50, cfg.Model.Trees)
	assert.Equal(t, 8, cfg.Model.MaxDepth)
	assert.Equal(t, SyncScopePair, cfg.Sync.Scope)
	// untouched sections keep their defaults
	assert.Equal(t, 6*time.Hour, cfg.Sync.Interval)
	assert.Equal(t, "mandiprices", cfg.Database.DBName)
}

func TestSplitPair(t *testing.T) {
	tests := []struct {
		in    string
		crop  string
		mandi string
		ok    bool
	}{
		{"Onion:Pune", "Onion", "Pune", true},
		{" Tomato : Nashik ", "Tomato", "Nashik", true},
		{"Onion", "", "", false},
		{":Pune", "", "Pune", false},
	}

	for _, tt := range tests {
		crop, mandi, ok := SplitPair(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.crop, crop)
			assert.Equal(t, tt.mandi, mandi)
		}
	}
}
