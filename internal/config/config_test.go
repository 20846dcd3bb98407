package config

import (
	"path/filepath"
	"testing"

	"github.com/kong/tablemodel/internal/cmd/common"
	"github.com/kong/tablemodel/internal/loader"
	utilviper "github.com/kong/tablemodel/internal/util/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProfiledConfig_ProfileEnvWithDashes(t *testing.T) {
	t.Setenv("TABLEMODEL_TEAM_A_B_C_VIEW_DEFAULT_CELL", "subtitle")

	profile := "team-a-b-c"
	mainv := utilviper.NewViper("nonexistent.yaml")
	mainv.Set(profile, map[string]any{})

	cfg := BuildProfiledConfig(profile, "nonexistent.yaml", mainv)

	if got := cfg.GetString("view.default-cell"); got != "subtitle" {
		t.Fatalf("expected view.default-cell to be %q, got %q", "subtitle", got)
	}
}

func TestGetConfigInitializesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tablemodel", "config.yaml")

	cfg, err := GetConfig(path, "default", path)
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.GetProfile())
	assert.Equal(t, path, cfg.GetPath())
	assert.Equal(t, common.DefaultOutputFormat, cfg.GetString(common.OutputConfigPath))
	assert.Equal(t, common.DefaultColorTheme, cfg.GetString(common.ColorThemeConfigPath))
	assert.Equal(t, common.DefaultDefaultCellValue, cfg.GetString(common.DefaultCellConfigPath))
	assert.False(t, cfg.GetBool(common.WatchConfigPath))
	assert.Equal(t, loader.DefaultDebounce, cfg.GetDuration(common.WatchDebounceConfigPath))
	assert.Equal(t,
		filepath.Join(filepath.Dir(path), "logs", "tablemodel.log"),
		cfg.GetString(common.LogFileConfigPath))

	// second load reads the written file back
	again, err := GetConfig(path, "default", path)
	require.NoError(t, err)
	assert.Equal(t, common.DefaultDefaultCellValue, again.GetString(common.DefaultCellConfigPath))
}

func TestGetConfigMissingExplicitPath(t *testing.T) {
	dir := t.TempDir()
	_, err := GetConfig(filepath.Join(dir, "nope.yaml"), "default", filepath.Join(dir, "config.yaml"))
	assert.ErrorContains(t, err, "does not exist")
}

func TestDefaultConfigPathHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	p, err := GetDefaultConfigFilePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/xdg", "tablemodel", "config.yaml"), p)
}
