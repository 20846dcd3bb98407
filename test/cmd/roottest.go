package cmd

import (
	"context"
	"log/slog"
	"testing"

	"github.com/kong/tablemodel/internal/build"
	"github.com/kong/tablemodel/internal/cmd/common"
	"github.com/kong/tablemodel/internal/config"
	"github.com/kong/tablemodel/internal/iostreams"
	"github.com/kong/tablemodel/internal/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// TestRoot is a minimal root command for exercising one verb. It provides the
// --output persistent flag and puts config, streams, a logger and build info
// on the context the way the real root command does.
type TestRoot struct {
	*cobra.Command
	Config  *config.ProfiledConfig
	Streams *iostreams.IOStreams
	Logger  *slog.Logger
}

// NewTestRoot builds a TestRoot around sub. Tests call Execute with args
// starting with the verb.
func NewTestRoot(t *testing.T, sub *cobra.Command, streams *iostreams.IOStreams) *TestRoot {
	t.Helper()

	// both root and child PersistentPreRun hooks run
	cobra.EnableTraverseRunHooks = true

	cfg := config.BuildProfiledConfig(common.DefaultProfile, "", viper.New())
	logger := slog.New(slog.DiscardHandler)
	info := &build.Info{Version: "1.2.3", Commit: "abc123", Date: "2026-01-02"}

	root := &cobra.Command{
		Use:              "tablemodel",
		SilenceUsage:     true,
		SilenceErrors:    true,
		TraverseChildren: true,
		PersistentPreRun: func(c *cobra.Command, _ []string) {
			if f := c.Flags().Lookup(common.OutputFlagName); f != nil {
				_ = cfg.BindFlag(common.OutputConfigPath, f)
			}
			ctx := context.WithValue(c.Context(), config.ConfigKey, config.Hook(cfg))
			ctx = context.WithValue(ctx, iostreams.StreamsKey, streams)
			ctx = context.WithValue(ctx, log.LoggerKey, logger)
			ctx = context.WithValue(ctx, build.InfoKey, info)
			c.SetContext(ctx)
		},
	}
	root.PersistentFlags().StringP(
		common.OutputFlagName, common.OutputFlagShort,
		common.DefaultOutputFormat, "Output format (text|json|yaml)",
	)
	root.SetOut(streams.Out)
	root.SetErr(streams.ErrOut)
	root.SetContext(context.Background())
	root.AddCommand(sub)

	return &TestRoot{Command: root, Config: cfg, Streams: streams, Logger: logger}
}

// Run executes the root with args and returns the command error.
func (r *TestRoot) Run(args ...string) error {
	r.SetArgs(args)
	return r.Execute()
}
