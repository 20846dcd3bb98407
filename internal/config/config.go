package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kong/tablemodel/internal/cmd/common"
	"github.com/kong/tablemodel/internal/loader"
	"github.com/kong/tablemodel/internal/meta"
	"github.com/kong/tablemodel/internal/util/viper"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var defaultConfigFileName = "config.yaml"

// Returns the expanded default config path depending on what
// environment variables are set. If XDG_CONFIG_HOME is set,
// the default is $XDG_CONFIG_HOME/tablemodel,
// otherwise the default is os.UserHomeDir()/.config/tablemodel.
// If these values are not set, an error is returned.
func GetDefaultConfigPath() (string, error) {
	val, set := os.LookupEnv("XDG_CONFIG_HOME")
	if !set || val == "" {
		var err error
		val, err = os.UserHomeDir()
		if err != nil {
			return "", err
		}
		val = filepath.Join(val, ".config")
	}
	val = filepath.Join(val, meta.CLIName)
	return os.ExpandEnv(val), nil
}

func GetDefaultConfigFilePath() (string, error) {
	path, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(path, defaultConfigFileName), nil
}

// GetConfig returns the configuration for this instance of the CLI
func GetConfig(path string, profile string, defaultConfigFilePath string) (*ProfiledConfig, error) {
	var rv *ProfiledConfig
	var err error

	path = os.ExpandEnv(path)

	_, err = os.Stat(path)
	if err == nil {
		// If the user provides a valid file path, we should strictly load it or fail immediately
		vip, e := viper.NewViperE(path)
		if e == nil {
			rv = BuildProfiledConfig(profile, path, vip)
		} else {
			err = e
		}
	} else if path == defaultConfigFilePath {
		// If the default given config file path does not exist, and it matches the defaultConfigFilePath
		// then we should initialize the default configuration including creating the directory and file
		var vip *v.Viper
		vip, err = viper.InitializeDefaultViper(getDefaultConfig(profile, path), path)
		if err == nil {
			rv = BuildProfiledConfig(profile, path, vip)
		}
	} else {
		err = fmt.Errorf("the provided config file path does not exist")
	}
	return rv, err
}

// Empty type to represent the _type_ Config. Genesis is to support a key in a Context
type Key struct{}

// Config is a global instance of the Key type
var ConfigKey = Key{}

// Hook is the part of the profiled configuration that commands read and
// bind flags against.
type Hook interface {
	GetString(key string) string
	GetBool(key string) bool
	// GetDuration accepts Go duration strings such as "250ms".
	GetDuration(key string) time.Duration
	// GetStringMapString reads a nested table, such as the view.cells mapping
	// from item identifier to cell kind.
	GetStringMapString(key string) map[string]string
	// Set sets an override for a given key
	Set(k string, v any)
	// BindFlag takes a specific configuration path and
	// binds it to a specific flag
	BindFlag(configPath string, f *pflag.Flag) error
	// The profile for this configuration
	GetProfile() string
	// The file path used to load this configuration
	GetPath() string
}

// ProfiledConfig is a Viper but with an associated profile ProfileName
//
//	allows for extraction of the profile specific sub-configuration
//	and implements the Hook interface for more restricted interactions
//	with the configuration system
type ProfiledConfig struct {
	*v.Viper
	subViper    *v.Viper
	ProfileName string
	Path        string
}

func (p *ProfiledConfig) GetProfile() string {
	return p.ProfileName
}

func (p *ProfiledConfig) GetString(key string) string {
	return p.subViper.GetString(key)
}

func (p *ProfiledConfig) GetBool(key string) bool {
	return p.subViper.GetBool(key)
}

func (p *ProfiledConfig) GetDuration(key string) time.Duration {
	return p.subViper.GetDuration(key)
}

func (p *ProfiledConfig) GetStringMapString(key string) map[string]string {
	return p.subViper.GetStringMapString(key)
}

func (p *ProfiledConfig) BindFlag(configPath string, f *pflag.Flag) error {
	return p.subViper.BindPFlag(configPath, f)
}

func (p *ProfiledConfig) Set(k string, v any) {
	p.subViper.Set(k, v)
}

func (p *ProfiledConfig) GetPath() string {
	return p.Path
}

func BuildProfiledConfig(profile string, path string, mainv *v.Viper) *ProfiledConfig {
	subv := mainv.Sub(profile)
	if subv == nil {
		// in this case the main viper is valid, but there is no
		// key or data under the key for this profile name
		subv = v.New()
		// Configure environment variable handling for the new sub-Viper
		// so it can still read profile-specific environment variables
		// even when the profile doesn't exist in the config file
		envPrefix := meta.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(profile, "-", "_"))
		viper.ConfigureEnvVars(subv, envPrefix)
	}

	rv := &ProfiledConfig{
		Viper:       mainv,
		ProfileName: profile,
		subViper:    subv,
		Path:        path,
	}
	return rv
}

func getDefaultConfig(profileName, configFilePath string) map[string]any {
	configDir := filepath.Dir(configFilePath)
	defaultLogFileName := meta.CLIName + ".log"
	defaultLogPath := filepath.Join(configDir, "logs", defaultLogFileName)

	defaultConfig := map[string]any{
		profileName: map[string]any{
			common.OutputConfigPath:     common.DefaultOutputFormat,
			common.LogFileConfigPath:    defaultLogPath,
			common.ColorThemeConfigPath: common.DefaultColorTheme,
			"view": map[string]any{
				"default-cell":   common.DefaultDefaultCellValue,
				"cells":          map[string]any{},
				"watch":          false,
				"watch-debounce": loader.DefaultDebounce.String(),
			},
		},
	}
	return defaultConfig
}
