package jq

import (
	"bytes"
	"testing"
	"time"

	cmdcommon "github.com/kong/tablemodel/internal/cmd/common"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

type stubConfig struct {
	values map[string]string
}

func (s stubConfig) GetString(key string) string                 { return s.values[key] }
func (s stubConfig) GetBool(string) bool                         { return false }
func (s stubConfig) GetDuration(string) time.Duration            { return 0 }
func (s stubConfig) GetStringMapString(string) map[string]string { return nil }
func (s stubConfig) Set(string, any)                             {}
func (s stubConfig) BindFlag(string, *pflag.Flag) error          { return nil }
func (s stubConfig) GetProfile() string                          { return "default" }
func (s stubConfig) GetPath() string                             { return "" }

func document() map[string]any {
	return map[string]any{
		"screens": []any{
			map[string]any{"title": "settings", "sections": []any{}},
			map[string]any{"title": "about", "sections": []any{}},
		},
	}
}

func TestResolveSettingsDefaults(t *testing.T) {
	command := &cobra.Command{Use: "test"}
	AddFlags(command.Flags())

	settings, err := ResolveSettings(command, nil)
	require.NoError(t, err)
	require.Equal(t, "", settings.Filter)
	require.Equal(t, cmdcommon.ColorModeAuto, settings.ColorMode)
	require.Equal(t, DefaultTheme, settings.Theme)
}

func TestResolveSettingsEmptyFilterDefaultsToIdentity(t *testing.T) {
	command := &cobra.Command{Use: "test"}
	AddSelectFlag(command.Flags())
	require.NoError(t, command.Flags().Set(FlagName, ""))

	settings, err := ResolveSettings(command, nil)
	require.NoError(t, err)
	require.Equal(t, ".", settings.Filter)
}

func TestResolveSettingsReadsRawOutputShortFlag(t *testing.T) {
	command := &cobra.Command{Use: "test"}
	AddFlags(command.Flags())
	require.NoError(t, command.Flags().Parse([]string{"-r", "--jq", ".title"}))

	settings, err := ResolveSettings(command, nil)
	require.NoError(t, err)
	require.True(t, settings.RawOutput)
	require.Equal(t, ".title", settings.Filter)
}

func TestResolveSettingsReadsColorConfig(t *testing.T) {
	command := &cobra.Command{Use: "test"}
	AddFlags(command.Flags())

	cfg := stubConfig{values: map[string]string{
		ColorEnabledConfigPath: "always",
		ColorThemeConfigPath:   "github",
	}}

	settings, err := ResolveSettings(command, cfg)
	require.NoError(t, err)
	require.Equal(t, cmdcommon.ColorModeAlways, settings.ColorMode)
	require.Equal(t, "github", settings.Theme)

	_, err = ResolveSettings(command, stubConfig{values: map[string]string{ColorEnabledConfigPath: "rainbow"}})
	require.Error(t, err)
}

func TestValidateOutputFormat(t *testing.T) {
	err := ValidateOutputFormat(cmdcommon.TEXT, Settings{Filter: "."})
	require.ErrorContains(t, err, "only supported")

	err = ValidateOutputFormat(cmdcommon.JSON, Settings{RawOutput: true})
	require.ErrorContains(t, err, "requires")

	require.NoError(t, ValidateOutputFormat(cmdcommon.YAML, Settings{Filter: ".title"}))
	require.NoError(t, ValidateOutputFormat(cmdcommon.TEXT, Settings{}))
}

func TestSelect(t *testing.T) {
	got, err := Select(document(), ".screens[1]")
	require.NoError(t, err)
	require.Equal(t, "about", got.(map[string]any)["title"])

	same, err := Select(document(), "")
	require.NoError(t, err)
	require.Equal(t, document(), same)

	_, err = Select(document(), ".screens[]")
	require.ErrorContains(t, err, "produced 2 results")

	_, err = Select(document(), ".screens[] | select(.title == \"none\")")
	require.ErrorContains(t, err, "no result")

	_, err = Select(document(), ".screens[0].title")
	require.ErrorContains(t, err, "did not produce an object")

	_, err = Select(document(), ".screens[")
	require.ErrorContains(t, err, "invalid jq expression")
}

func TestApplyFilter(t *testing.T) {
	one, err := ApplyFilter(document(), ".screens | length")
	require.NoError(t, err)
	require.Equal(t, float64(2), one)

	many, err := ApplyFilter(document(), ".screens[].title")
	require.NoError(t, err)
	require.Equal(t, []any{"settings", "about"}, many)

	none, err := ApplyFilter(document(), "empty")
	require.NoError(t, err)
	require.Nil(t, none)

	_, err = ApplyFilter(nil, ".")
	require.ErrorContains(t, err, "empty")
}

func TestWriteRaw(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteRaw(document(), ".screens[] | .title, (.sections | length)", buf))
	require.Equal(t, "settings\n0\nabout\n0\n", buf.String())
}

func TestPrintJSON(t *testing.T) {
	plain := &bytes.Buffer{}
	require.NoError(t, PrintJSON(plain, map[string]any{"title": "x"}, Settings{ColorMode: cmdcommon.ColorModeNever}))
	require.Equal(t, "{\n  \"title\": \"x\"\n}\n", plain.String())

	colored := &bytes.Buffer{}
	require.NoError(t, PrintJSON(colored, map[string]any{"title": "x"},
		Settings{ColorMode: cmdcommon.ColorModeAlways, Theme: DefaultTheme}))
	require.Contains(t, colored.String(), "\x1b[")

	scalar := &bytes.Buffer{}
	require.NoError(t, PrintJSON(scalar, "x", Settings{ColorMode: cmdcommon.ColorModeAlways}))
	require.Equal(t, "\"x\"\n", scalar.String())
}
