package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.HTTP.Port)
	require.Equal(t, "memory", cfg.Store.Backend)
	require.Equal(t, 0.75, cfg.Engine.Trust.DirectWeight)
	require.Equal(t, 0.25, cfg.Engine.Trust.FriendOfFriendWeight)
	require.Equal(t, 0.2, cfg.Engine.Trust.BoostCap)
	require.Equal(t, 2, cfg.Engine.Explorer.MaxDepth)
	require.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PLATEFUL_HTTP__PORT", "9191")
	t.Setenv("PLATEFUL_STORE__BACKEND", "badger")
	t.Setenv("PLATEFUL_ENGINE__TRUST__DIRECT_WEIGHT", "0.8")
	t.Setenv("PLATEFUL_LOGGING__FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.HTTP.Port)
	require.Equal(t, "badger", cfg.Store.Backend)
	require.Equal(t, 0.8, cfg.Engine.Trust.DirectWeight)
	require.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("http:\n  port: 7070\nengine:\n  verification:\n    expert_min_recommendations: 10\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("PLATEFUL_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.HTTP.Port)
	require.Equal(t, 10, cfg.Engine.Verification.ExpertMinRecommendations)

	// Defaults below the overridden keys survive the merge.
	require.Equal(t, 0.75, cfg.Engine.Verification.ExpertScore)
}

func TestLoadRejectsInvalidBackend(t *testing.T) {
	t.Setenv("PLATEFUL_STORE__BACKEND", "cassandra")

	_, err := Load()
	require.Error(t, err)
}
