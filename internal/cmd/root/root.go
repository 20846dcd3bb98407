package root

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/kong/tablemodel/internal/build"
	"github.com/kong/tablemodel/internal/cmd"
	"github.com/kong/tablemodel/internal/cmd/common"
	"github.com/kong/tablemodel/internal/cmd/root/verbs/dump"
	"github.com/kong/tablemodel/internal/cmd/root/verbs/validate"
	"github.com/kong/tablemodel/internal/cmd/root/verbs/view"
	"github.com/kong/tablemodel/internal/cmd/root/version"
	"github.com/kong/tablemodel/internal/config"
	"github.com/kong/tablemodel/internal/iostreams"
	"github.com/kong/tablemodel/internal/log"
	"github.com/kong/tablemodel/internal/meta"
	"github.com/kong/tablemodel/internal/theme"
	"github.com/kong/tablemodel/internal/util"
	"github.com/kong/tablemodel/internal/util/i18n"
	"github.com/kong/tablemodel/internal/util/normalizers"
	"github.com/segmentio/cli"
	"github.com/spf13/cobra"
)

var (
	rootLong = normalizers.LongDesc(i18n.T("root.rootLong", `
  tablemodel describes sectioned lists as data and shows them in the terminal.

  A model document holds a table of sections and items. Items can carry a
  title, detail, image, custom values and a child table to drill into. Use
  view to browse a document, validate to check it and dump to print what
  was decoded.`))

	rootShort = i18n.T("root/rootShort", fmt.Sprintf("%s browses declarative list models", meta.CLIName))

	rootCmd *cobra.Command

	// Stores the global runtime value for the Configuration file path,
	configFilePath string
	currProfile    = common.DefaultProfile

	currConfig   config.Hook
	streams      *iostreams.IOStreams
	outputFormat = cmd.NewEnum([]string{"json", "yaml", "text"}, common.DefaultOutputFormat)
	logLevel     = cmd.NewEnum([]string{"trace", "debug", "info", "warn", "error"}, common.DefaultLogLevel)
	colorTheme   = theme.NewFlag(common.DefaultColorTheme)

	buildInfo *build.Info
	closeLog  = func() error { return nil }
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   meta.CLIName,
		Short: rootShort,
		Long:  rootLong,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			logger, err := buildLogger(c)
			if err != nil {
				return err
			}
			palette, err := applyTheme()
			if err != nil {
				return err
			}

			ctx := context.WithValue(c.Context(), config.ConfigKey, currConfig)
			ctx = context.WithValue(ctx, iostreams.StreamsKey, streams)
			ctx = context.WithValue(ctx, build.InfoKey, buildInfo)
			ctx = log.WithCommandLogContext(ctx, log.CommandLogContext{
				CommandPath: c.CommandPath(),
				CommandVerb: c.Name(),
				Profile:     currProfile,
			})
			ctx = context.WithValue(ctx, log.LoggerKey, log.LoggerWithContext(ctx, logger))
			ctx = theme.ContextWithPalette(ctx, palette)
			c.SetContext(ctx)
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return closeLog()
		},
	}

	// parses all flags not just the target command
	rootCmd.TraverseChildren = true

	rootCmd.PersistentFlags().StringVar(&configFilePath, common.ConfigFilePathFlagName,
		defaultConfigFilePath(),
		i18n.T("root."+common.ConfigFilePathFlagName, "Path to the configuration file to load."))

	rootCmd.PersistentFlags().StringVarP(&currProfile, common.ProfileFlagName, common.ProfileFlagShort,
		common.DefaultProfile,
		"Specify the profile to use for this command.")

	// -------------------------------------------------------------------------
	// Enum flags are validated by the FlagEnum value itself, so a typo fails
	// while flags are parsed rather than when the value is first read.
	rootCmd.PersistentFlags().VarP(outputFormat, common.OutputFlagName, common.OutputFlagShort,
		fmt.Sprintf(`Configures the output format.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.OutputConfigPath, strings.Join(outputFormat.Allowed, "|")))

	rootCmd.PersistentFlags().Var(logLevel, common.LogLevelFlagName,
		fmt.Sprintf(`Configures the logging level. Execution logs are written to the log file.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.LogLevelConfigPath, strings.Join(logLevel.Allowed, "|")))
	// -------------------------------------------------------------------------

	rootCmd.PersistentFlags().String(common.LogFileFlagName, "",
		fmt.Sprintf(`Write execution logs to the specified file instead of discarding them.
- Config path: [ %s ]`,
			common.LogFileConfigPath))

	rootCmd.PersistentFlags().Var(colorTheme, common.ColorThemeFlagName,
		fmt.Sprintf(`Configures the color theme of interactive views.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.ColorThemeConfigPath, strings.Join(theme.Available(), "|")))

	return rootCmd
}

func defaultConfigFilePath() string {
	path, err := config.GetDefaultConfigFilePath()
	if err != nil {
		return ""
	}
	return path
}

// addCommands adds the root subcommands to the command.
func addCommands() error {
	rootCmd.AddCommand(version.NewVersionCmd())

	constructors := []func() (*cobra.Command, error){
		view.NewViewCmd,
		validate.NewValidateCmd,
		dump.NewDumpCmd,
	}
	for _, newCmd := range constructors {
		c, e := newCmd()
		if e != nil {
			return e
		}
		rootCmd.AddCommand(c)
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd = newRootCmd()
	err := addCommands()
	util.CheckError(err)

	// Because the profile is not part of the configuration, we can't use viper
	// to read it following it's built in priorities.  So here we look for a well known
	// profile variable and set our package level variable if it's set before
	// continuing to process the command run.  This creates a ENV_VAR < CLI_FLAG priority
	profileEnvVar, found := os.LookupEnv(fmt.Sprintf("%s_PROFILE", meta.EnvPrefix))
	if found {
		currProfile = profileEnvVar
	}
}

func initConfig() {
	cfg, e1 := config.GetConfig(configFilePath, currProfile, defaultConfigFilePath())
	util.CheckError(e1)
	currConfig = cfg

	bindings := []struct{ flag, cfgPath string }{
		{common.OutputFlagName, common.OutputConfigPath},
		{common.LogLevelFlagName, common.LogLevelConfigPath},
		{common.LogFileFlagName, common.LogFileConfigPath},
		{common.ColorThemeFlagName, common.ColorThemeConfigPath},
	}
	for _, b := range bindings {
		f := rootCmd.PersistentFlags().Lookup(b.flag)
		util.CheckError(cfg.BindFlag(b.cfgPath, f))
	}
}

func buildLogger(c *cobra.Command) (*slog.Logger, error) {
	level := currConfig.GetString(common.LogLevelConfigPath)
	if _, err := common.LogLevelStringToIota(level); err != nil && level != "" {
		return nil, &cmd.ConfigurationError{Err: err}
	}

	var errOut io.Writer
	if streams != nil {
		errOut = streams.ErrOut
	}
	logger, closer, err := log.NewLogger(log.Options{
		Level:  level,
		File:   currConfig.GetString(common.LogFileConfigPath),
		ErrOut: errOut,
	})
	if err != nil {
		return nil, &cmd.ConfigurationError{Err: err}
	}
	closeLog = closer

	logger.Debug("command started",
		slog.String("command", c.CommandPath()),
		slog.String("profile", currProfile),
		slog.String("config", currConfig.GetPath()))
	return logger, nil
}

func applyTheme() (theme.Palette, error) {
	name := currConfig.GetString(common.ColorThemeConfigPath)
	if name == "" {
		name = common.DefaultColorTheme
	}
	if err := theme.SetCurrent(name); err != nil {
		return theme.Palette{}, &cmd.ConfigurationError{Err: err}
	}
	return theme.Current(), nil
}

func Execute(ctx context.Context, s *iostreams.IOStreams, bi *build.Info) {
	buildInfo = bi
	cobra.EnableTraverseRunHooks = true
	streams = s
	rootCmd.SetIn(s.In)
	rootCmd.SetOut(s.Out)
	rootCmd.SetErr(s.ErrOut)

	err := rootCmd.ExecuteContext(ctx)
	_ = closeLog()
	if err == nil {
		return
	}

	var executionError *cmd.ExecutionError
	if errors.As(err, &executionError) {
		printer, e := cli.Format(outputFormat.String(), s.ErrOut)
		if e != nil {
			fmt.Fprintln(s.ErrOut, "Error:", executionError.Msg)
			os.Exit(1)
		}
		printer.Print(executionError)
		printer.Flush()
		os.Exit(1)
	}
	// cobra has already printed the error and usage
	os.Exit(1)
}
