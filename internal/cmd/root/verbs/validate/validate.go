package validate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kong/tablemodel/internal/cmd"
	"github.com/kong/tablemodel/internal/cmd/document"
	"github.com/kong/tablemodel/internal/cmd/output/jq"
	"github.com/kong/tablemodel/internal/cmd/root/verbs"
	"github.com/kong/tablemodel/internal/loader"
	"github.com/kong/tablemodel/internal/meta"
	"github.com/kong/tablemodel/internal/util/i18n"
	"github.com/kong/tablemodel/internal/util/normalizers"
	"github.com/kong/tablemodel/internal/validate"
	"github.com/spf13/cobra"
)

const (
	Verb = verbs.Validate

	recursiveFlagName  = "recursive"
	recursiveFlagShort = "R"
	strictFlagName     = "strict"
)

var (
	validateUse = Verb.String() + " FILE..."

	validateShort = i18n.T("root.verbs.validate.validateShort",
		"Check that model documents decode")

	validateLong = normalizers.LongDesc(i18n.T("root.verbs.validate.validateLong",
		`Decode model documents and report every file that fails, with the key path
of the failure. Documents that decode are also checked for items sharing an
identifier, empty sections and child tables without sections.

Arguments can be files or directories. Use -R/--recursive to walk directories
recursively and '-' to read a document from standard input.`))

	validateExamples = normalizers.Examples(i18n.T("root.verbs.validate.validateExamples",
		fmt.Sprintf(`  # Validate a single file
  %[1]s validate settings.yaml

  # Validate every model file below a directory, as JSON
  %[1]s validate -R ./screens --output json

  # Validate the table under screens.main and fail on warnings too
  %[1]s validate app.json --query screens.main --strict

  # Read from stdin
  cat settings.yaml | %[1]s validate -`, meta.CLIName)))
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() (*cobra.Command, error) {
	validateCmd := &cobra.Command{
		Use:     validateUse,
		Short:   validateShort,
		Long:    validateLong,
		Example: validateExamples,
		Aliases: []string{"val"},
		Args:    cobra.MinimumNArgs(1),
		PersistentPreRun: func(c *cobra.Command, _ []string) {
			c.SetContext(context.WithValue(c.Context(), verbs.Verb, Verb))
		},
		RunE: runValidate,
	}

	document.AddFlags(validateCmd.Flags())
	jq.AddSelectFlag(validateCmd.Flags())
	validateCmd.Flags().BoolP(recursiveFlagName, recursiveFlagShort, false,
		"Process directory arguments recursively")
	validateCmd.Flags().Bool(strictFlagName, false,
		"Treat warnings as failures")

	return validateCmd, nil
}

func runValidate(command *cobra.Command, args []string) error {
	helper := cmd.BuildHelper(command, args)

	recursive, err := command.Flags().GetBool(recursiveFlagName)
	if err != nil {
		return &cmd.ConfigurationError{
			Err: fmt.Errorf("failed to parse --%s flag: %w", recursiveFlagName, err),
		}
	}
	strict, err := command.Flags().GetBool(strictFlagName)
	if err != nil {
		return &cmd.ConfigurationError{
			Err: fmt.Errorf("failed to parse --%s flag: %w", strictFlagName, err),
		}
	}
	outputFmt, err := helper.GetOutputFormat()
	if err != nil {
		return &cmd.ConfigurationError{Err: err}
	}
	opts, err := document.OptionsFrom(command, true)
	if err != nil {
		return err
	}
	logger, err := helper.GetLogger()
	if err != nil {
		return err
	}

	hasStdin := false
	var regularPaths []string
	for _, arg := range args {
		if arg == document.StdinPath {
			hasStdin = true
		} else {
			regularPaths = append(regularPaths, arg)
		}
	}

	output := &validate.Output{Files: []validate.Summary{}, Results: []validate.Result{}}

	if hasStdin {
		doc, err := document.Load(document.StdinPath, helper.GetStreams().In, opts)
		if err != nil {
			output.Add(validate.Summary{File: document.StdinPath}, []validate.Result{{
				File: document.StdinPath, Severity: validate.SeverityError, Message: err.Error(),
			}})
		} else {
			output.Add(validate.Document(doc.Path, doc.Root, opts.Select))
		}
	}

	if len(regularPaths) > 0 {
		inputFiles, err := loader.CollectFiles(regularPaths, recursive)
		if err != nil {
			return cmd.PrepareExecutionError("failed to resolve input files", err, command)
		}
		if len(inputFiles) == 0 {
			return cmd.PrepareExecutionError(
				"no model files found in the specified path(s)",
				errors.New("no JSON, YAML or TOML files found"), command,
			)
		}
		fileOutput := validate.Files(inputFiles, opts.Select)
		output.Files = append(output.Files, fileOutput.Files...)
		output.Results = append(output.Results, fileOutput.Results...)
		output.ErrorCount += fileOutput.ErrorCount
		output.WarnCount += fileOutput.WarnCount
	}

	logger.Debug("validated model documents",
		slog.Int("files", len(output.Files)),
		slog.Int("errors", output.ErrorCount),
		slog.Int("warnings", output.WarnCount))

	if err := validate.FormatOutput(helper.GetStreams().Out, output, outputFmt.String()); err != nil {
		return cmd.PrepareExecutionError("failed to write output", err, command)
	}

	failures := output.ErrorCount
	if strict {
		failures += output.WarnCount
	}
	if failures > 0 {
		return cmd.PrepareExecutionError(
			"invalid model documents",
			fmt.Errorf("found %d error(s) and %d warning(s) in %d file(s)",
				output.ErrorCount, output.WarnCount, len(output.Files)),
			command,
		)
	}
	return nil
}
