package app

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func resetSettingsStateForTest() {
	settingsOnce = sync.Once{}
	settings = Settings{}
	settingsErr = nil
	SetDBPathOverride("")
}

func TestGetDBPath_PrioritizesCLIOverride(t *testing.T) {
	resetSettingsStateForTest()
	t.Cleanup(resetSettingsStateForTest)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("COMMENTD_DB_PATH", filepath.Join(home, "env", "commentd.db"))

	overridePath := filepath.Join(home, "cli", "commentd.db")
	SetDBPathOverride(overridePath)

	resolved, err := GetDBPath()
	require.NoError(t, err)
	require.Equal(t, overridePath, resolved)
}

func TestGetDBPath_UsesEnvWithoutOverride(t *testing.T) {
	resetSettingsStateForTest()
	t.Cleanup(resetSettingsStateForTest)

	home := t.TempDir()
	t.Setenv("HOME", home)

	envPath := filepath.Join(home, "env", "commentd.db")
	t.Setenv("COMMENTD_DB_PATH", envPath)

	resolved, err := GetDBPath()
	require.NoError(t, err)
	require.Equal(t, envPath, resolved)
}

func TestGetDBPath_FallsBackToDefault(t *testing.T) {
	resetSettingsStateForTest()
	t.Cleanup(resetSettingsStateForTest)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("COMMENTD_DB_PATH", "")

	resolved, err := GetDBPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "commentd", "commentd.db"), resolved)
}

func TestGetDBPath_UsesConfigFile(t *testing.T) {
	resetSettingsStateForTest()
	t.Cleanup(resetSettingsStateForTest)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("COMMENTD_DB_PATH", "")

	configDir := filepath.Join(home, ".config", "commentd")
	require.NoError(t, os.MkdirAll(configDir, 0750))
	cfgPath := filepath.Join(home, "configured", "commentd.db")
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"),
		[]byte("db_path: "+cfgPath+"\n"), 0600))

	resolved, err := GetDBPath()
	require.NoError(t, err)
	require.Equal(t, cfgPath, resolved)
}

func TestResolveDBPathDetailed_ReportsSources(t *testing.T) {
	resetSettingsStateForTest()
	t.Cleanup(resetSettingsStateForTest)

	home := t.TempDir()
	t.Setenv("HOME", home)

	envPath := filepath.Join(home, "env", "commentd.db")
	t.Setenv("COMMENTD_DB_PATH", envPath)

	resolved, source, err := ResolveDBPathDetailed()
	require.NoError(t, err)
	require.Equal(t, envPath, resolved)
	require.Equal(t, "env(COMMENTD_DB_PATH)", source)

	SetDBPathOverride(filepath.Join(home, "cli", "commentd.db"))
	_, source, err = ResolveDBPathDetailed()
	require.NoError(t, err)
	require.Equal(t, "cli(--db-path)", source)
}

func TestEnsureDBDir_CreatesParent(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nested", "deep", "commentd.db")

	resolved, err := EnsureDBDir(dbPath)
	require.NoError(t, err)
	require.Equal(t, dbPath, resolved)

	info, err := os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
