// Package jq applies jq expressions to model documents, both to pick the table
// to decode out of a larger document and to filter dumped output.
package jq

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/itchyny/gojq"
	cmdpkg "github.com/kong/tablemodel/internal/cmd"
	cmdcommon "github.com/kong/tablemodel/internal/cmd/common"
	"github.com/kong/tablemodel/internal/config"
	"github.com/kong/tablemodel/internal/iostreams"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	FlagName               = "jq"
	ColorFlagName          = "jq-color"
	ColorThemeFlagName     = "jq-color-theme"
	RawOutputFlagName      = "jq-raw-output"
	RawOutputFlagShort     = "r"
	ColorEnabledConfigPath = "jq.color.enabled"
	ColorThemeConfigPath   = "jq.color.theme"
	DefaultTheme           = "friendly"
)

var jqQueryCache sync.Map

type Settings struct {
	Filter    string
	ColorMode cmdcommon.ColorMode
	Theme     string
	RawOutput bool
}

// AddSelectFlag registers only --jq, for commands that use the expression to
// choose the table inside a document.
func AddSelectFlag(flags *pflag.FlagSet) {
	flags.String(
		FlagName,
		"",
		"jq expression selecting the table object inside the document (must yield exactly one object)",
	)
}

// AddFlags registers --jq and the flags controlling how filtered output is printed.
func AddFlags(flags *pflag.FlagSet) {
	flags.String(
		FlagName,
		"",
		"Filter the dumped model using jq expressions (powered by gojq for full jq compatibility)",
	)

	jqColor := cmdpkg.NewEnum([]string{
		cmdcommon.ColorModeAuto.String(),
		cmdcommon.ColorModeAlways.String(),
		cmdcommon.ColorModeNever.String(),
	}, cmdcommon.DefaultColorMode)

	flags.Var(
		jqColor,
		ColorFlagName,
		fmt.Sprintf(`Controls colorized JSON output.
- Config path: [ %s ]
- Allowed    : [ auto|always|never ]`, ColorEnabledConfigPath),
	)

	flags.String(
		ColorThemeFlagName,
		DefaultTheme,
		fmt.Sprintf(`Select the color theme used for JSON output.
- Config path: [ %s ]
- Examples   : [ friendly, github-dark, dracula ]`, ColorThemeConfigPath),
	)

	flags.BoolP(
		RawOutputFlagName,
		RawOutputFlagShort,
		false,
		"Output string jq results without JSON quotes (like jq -r).",
	)
}

func BindFlags(cfg config.Hook, flags *pflag.FlagSet) error {
	if cfg == nil || flags == nil {
		return nil
	}

	bindings := []struct{ flag, cfgPath string }{
		{ColorFlagName, ColorEnabledConfigPath},
		{ColorThemeFlagName, ColorThemeConfigPath},
	}

	for _, b := range bindings {
		if f := flags.Lookup(b.flag); f != nil {
			if err := cfg.BindFlag(b.cfgPath, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func ResolveSettings(command *cobra.Command, cfg config.Hook) (Settings, error) {
	settings := Settings{
		Theme:     DefaultTheme,
		ColorMode: cmdcommon.ColorModeAuto,
	}

	if command == nil || command.Flags().Lookup(FlagName) == nil {
		return settings, nil
	}
	flags := command.Flags()

	jqFilter, err := flags.GetString(FlagName)
	if err != nil {
		return Settings{}, err
	}
	jqFilter = strings.TrimSpace(jqFilter)
	if flags.Changed(FlagName) && jqFilter == "" {
		jqFilter = "."
	}
	settings.Filter = jqFilter

	if flags.Lookup(RawOutputFlagName) != nil {
		if settings.RawOutput, err = flags.GetBool(RawOutputFlagName); err != nil {
			return Settings{}, err
		}
	}

	if cfg == nil {
		return settings, nil
	}

	colorValue := strings.ToLower(strings.TrimSpace(cfg.GetString(ColorEnabledConfigPath)))
	if settings.ColorMode, err = cmdcommon.ColorModeStringToIota(colorValue); err != nil {
		return Settings{}, &cmdpkg.ConfigurationError{Err: err}
	}
	if themeValue := strings.TrimSpace(cfg.GetString(ColorThemeConfigPath)); themeValue != "" {
		settings.Theme = themeValue
	}
	return settings, nil
}

func HasFilter(settings Settings) bool {
	return strings.TrimSpace(settings.Filter) != ""
}

func ValidateOutputFormat(outType cmdcommon.OutputFormat, settings Settings) error {
	if settings.RawOutput && !HasFilter(settings) {
		return &cmdpkg.ConfigurationError{
			Err: fmt.Errorf("--%s requires --%s", RawOutputFlagName, FlagName),
		}
	}
	if !HasFilter(settings) || outType == cmdcommon.JSON || outType == cmdcommon.YAML {
		return nil
	}
	return &cmdpkg.ConfigurationError{
		Err: fmt.Errorf("--%s is only supported with --output json or --output yaml", FlagName),
	}
}

// Select runs filter against root and returns its single result. Filters that
// yield nothing, several values, or a non-object are rejected.
func Select(root any, filter string) (any, error) {
	if strings.TrimSpace(filter) == "" {
		return root, nil
	}
	results, err := evaluate(root, filter)
	if err != nil {
		return nil, err
	}
	switch len(results) {
	case 0:
		return nil, fmt.Errorf("jq filter %q produced no result", filter)
	case 1:
	default:
		return nil, fmt.Errorf("jq filter %q produced %d results, expected one table", filter, len(results))
	}
	if _, ok := results[0].(map[string]any); !ok {
		return nil, fmt.Errorf("jq filter %q did not produce an object", filter)
	}
	return results[0], nil
}

// ApplyFilter runs filter against input. A single result is returned as is,
// several are collected into a list and none yields nil.
func ApplyFilter(input any, filter string) (any, error) {
	results, err := evaluate(input, filter)
	if err != nil {
		return nil, err
	}
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// WriteRaw writes each result of filter on its own line, strings unquoted.
func WriteRaw(input any, filter string, out io.Writer) error {
	results, err := evaluate(input, filter)
	if err != nil {
		return err
	}
	for _, result := range results {
		line, ok := result.(string)
		if !ok {
			encoded, err := json.Marshal(result)
			if err != nil {
				return fmt.Errorf("failed to encode filtered result: %w", err)
			}
			line = string(encoded)
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

// PrintJSON writes value as indented JSON, colorized when settings and out allow.
func PrintJSON(out io.Writer, value any, settings Settings) error {
	formatted, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	printable := string(formatted)
	if ShouldUseColor(settings.ColorMode, out) {
		printable = MaybeColorizeOutput(value, printable, settings.Theme)
	}
	_, err = fmt.Fprintln(out, strings.TrimRight(printable, "\n"))
	return err
}

func evaluate(input any, filter string) ([]any, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		filter = "."
	}
	if input == nil {
		return nil, errors.New("document is empty, cannot apply jq filter")
	}

	query, err := getCachedQuery(filter)
	if err != nil {
		return nil, err
	}

	iter := query.Run(input)
	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("jq filter failed: %w", err)
		}
		results = append(results, normalizeGoJQValue(v))
	}
	return results, nil
}

func getCachedQuery(filter string) (*gojq.Code, error) {
	if code, ok := jqQueryCache.Load(filter); ok {
		return code.(*gojq.Code), nil
	}

	parsed, err := gojq.Parse(filter)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}

	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}

	jqQueryCache.Store(filter, code)
	return code, nil
}

func normalizeGoJQValue(v any) any {
	switch value := v.(type) {
	case map[any]any:
		converted := make(map[string]any, len(value))
		for k, val := range value {
			converted[fmt.Sprint(k)] = normalizeGoJQValue(val)
		}
		return converted
	case []any:
		for i := range value {
			value[i] = normalizeGoJQValue(value[i])
		}
		return value
	case int:
		return float64(value)
	default:
		return value
	}
}

var terminalDetector = iostreams.IsTerminal

func ShouldUseColor(mode cmdcommon.ColorMode, out io.Writer) bool {
	switch mode {
	case cmdcommon.ColorModeAlways:
		return true
	case cmdcommon.ColorModeNever:
		return false
	case cmdcommon.ColorModeAuto:
		fallthrough
	default:
		if _, disabled := os.LookupEnv("NO_COLOR"); disabled {
			return false
		}
		return terminalDetector(out)
	}
}

// MaybeColorizeOutput highlights formatted JSON. Scalars are returned as is.
func MaybeColorizeOutput(value any, formatted, theme string) string {
	switch value.(type) {
	case map[string]any, []any:
	default:
		return formatted
	}

	lexer := lexers.Get("json")
	if lexer == nil {
		return formatted
	}
	iterator, err := lexer.Tokenise(nil, formatted)
	if err != nil {
		return formatted
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Get("terminal")
	}
	if formatter == nil {
		return formatted
	}

	style := styles.Get(theme)
	if style == nil {
		style = styles.Fallback
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return formatted
	}
	return buf.String()
}
