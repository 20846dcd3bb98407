package version

import (
	"context"
	"fmt"
	"io"

	"github.com/kong/tablemodel/internal/cmd"
	"github.com/kong/tablemodel/internal/cmd/common"
	"github.com/kong/tablemodel/internal/cmd/root/verbs"
	"github.com/kong/tablemodel/internal/meta"
	"github.com/kong/tablemodel/internal/util/i18n"
	"github.com/kong/tablemodel/internal/util/normalizers"
	"github.com/segmentio/cli"
	"github.com/spf13/cobra"
)

const (
	ShowCommitFlagName   = "show-commit"
	ShowCommitConfigPath = "version." + ShowCommitFlagName
)

var (
	versionUse   = verbs.Version.String()
	versionShort = i18n.T("root.version.versionShort",
		fmt.Sprintf("Print the %s version", meta.CLIName))
	versionLong = normalizers.LongDesc(i18n.T("root.version.versionLong",
		`The version command prints the version and other optional information`))
	versionExample = normalizers.Examples(i18n.T("root.version.versionExamples",
		fmt.Sprintf(`
		# Print the simple version
		%[1]s version
		# Print the version and the git commit hash
		%[1]s version --show-commit
		`, meta.CLIName)))
)

// Build a new instance of the version command
func NewVersionCmd() *cobra.Command {
	rv := &cobra.Command{
		Use:     versionUse,
		Short:   versionShort,
		Long:    versionLong,
		Example: versionExample,
		Args:    cobra.NoArgs,
		PersistentPreRun: func(c *cobra.Command, _ []string) {
			c.SetContext(context.WithValue(c.Context(), verbs.Verb, verbs.Version))
		},
		PreRunE: bindFlags,
		RunE: func(c *cobra.Command, args []string) error {
			helper := cmd.BuildHelper(c, args)

			err := validate(helper)
			if err != nil {
				return err
			}
			return run(helper)
		},
	}

	rv.Flags().Bool(ShowCommitFlagName, false,
		i18n.T(fmt.Sprintf("root.%s", ShowCommitConfigPath),
			fmt.Sprintf("True to show the git commit hash when built.\n (config path = '%s')", ShowCommitConfigPath)))

	return rv
}

func bindFlags(c *cobra.Command, args []string) error {
	helper := cmd.BuildHelper(c, args)
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	return cfg.BindFlag(ShowCommitConfigPath, c.Flags().Lookup(ShowCommitFlagName))
}

// validate makes sure build information is available before printing it.
func validate(helper cmd.Helper) error {
	_, err := helper.GetBuildInfo()
	return err
}

// Run performs the actual version command logic
func run(helper cmd.Helper) error {
	info, err := helper.GetBuildInfo()
	if err != nil {
		return err
	}

	// Printer functions take objects to print
	result := map[string]any{
		"version": info.Version,
	}

	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}

	if cfg.GetBool(ShowCommitConfigPath) {
		result["commit"] = info.Commit
		result["date"] = info.Date
	}

	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}

	if outType == common.TEXT {
		return printText(result, helper.GetStreams().Out)
	}

	p, err := cli.Format(outType.String(), helper.GetStreams().Out)
	if err != nil {
		return err
	}
	defer p.Flush()
	p.Print(result)

	return nil
}

// printText prints "<version> (<commit>, <date>)", leaving out what was not requested.
func printText(data map[string]any, out io.Writer) error {
	if ver, ok := data["version"]; ok {
		_, e := fmt.Fprintf(out, "%s", ver)
		if e != nil {
			return e
		}
	}
	if commit, ok := data["commit"]; ok {
		_, e := fmt.Fprintf(out, " (%s, %s)", commit, data["date"])
		if e != nil {
			return e
		}
	}
	_, err := fmt.Fprintf(out, "\n")
	return err
}
