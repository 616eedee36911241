package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Setenv(EnvConfigDir, t.TempDir())
	t.Setenv(EnvAPIURL, "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DefaultAPIURL, cfg.APIURL)
	require.Equal(t, DefaultPageSize, cfg.PageSize)
	require.Equal(t, DefaultTimeout, cfg.Timeout.Duration)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)
	yml := "apiUrl: http://atlas.internal:9000\ntimeout: 5s\npageSize: 25\nthemes: [Art, Music]\ndefaultTheme: Art\nkeepFailed: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yml), 0o644))
	t.Setenv(EnvPageSize, "50")
	t.Setenv(EnvAPIURL, "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://atlas.internal:9000", cfg.APIURL)
	require.Equal(t, 5*time.Second, cfg.Timeout.Duration)
	require.Equal(t, 50, cfg.PageSize)
	require.Equal(t, []string{"Art", "Music"}, cfg.Themes)
	require.True(t, cfg.KeepFailed)
	require.NoError(t, cfg.Validate())
}

func TestLoad_BadEnvPageSize(t *testing.T) {
	t.Setenv(EnvConfigDir, t.TempDir())
	t.Setenv(EnvPageSize, "many")
	_, err := Load()
	require.Error(t, err)
}

func TestValidate_RejectsDefaultThemeOutsideSet(t *testing.T) {
	cfg := Defaults()
	cfg.DefaultTheme = "Cooking"
	require.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.APIURL = "localhost:8000"
	require.Error(t, cfg.Validate())
}

func TestSave_RoundTripJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Defaults()
	cfg.APIURL = "https://atlas.example"
	require.NoError(t, Save(path, &cfg))

	got := Defaults()
	require.NoError(t, got.mergeFile(path))
	require.Equal(t, "https://atlas.example", got.APIURL)
	require.Equal(t, DefaultTimeout, got.Timeout.Duration)
}
