package dump

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kong/tablemodel/internal/cmd"
	"github.com/kong/tablemodel/internal/cmd/common"
	"github.com/kong/tablemodel/internal/cmd/document"
	"github.com/kong/tablemodel/internal/cmd/output/jq"
	"github.com/kong/tablemodel/internal/cmd/output/outline"
	"github.com/kong/tablemodel/internal/cmd/root/verbs"
	"github.com/kong/tablemodel/internal/demo"
	"github.com/kong/tablemodel/internal/iostreams"
	"github.com/kong/tablemodel/internal/meta"
	"github.com/kong/tablemodel/internal/model"
	"github.com/kong/tablemodel/internal/util/i18n"
	"github.com/kong/tablemodel/internal/util/normalizers"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

const (
	Verb = verbs.Dump
)

var (
	dumpUse = Verb.String() + " [FILE]"

	dumpShort = i18n.T("root.verbs.dump.dumpShort", "Print the decoded model")

	dumpLong = normalizers.LongDesc(i18n.T("root.verbs.dump.dumpLong",
		`Decode a model document and print the table as the model sees it.

Fields that failed to decode are dropped, so the output shows exactly what a
view would display. JSON and YAML output can be filtered with --jq. Text
output is a Markdown outline of every table, rendered when printing to a
terminal.`))

	dumpExamples = normalizers.Examples(i18n.T("root.verbs.dump.dumpExamples",
		fmt.Sprintf(`
		# Print the outline of a model file
		%[1]s dump settings.yaml
		# Convert a YAML model to JSON
		%[1]s dump settings.yaml -o json
		# List the identifiers of the first section
		%[1]s dump settings.yaml -o json --jq '.sections[0].items[].id' -r
		# Export a built-in example
		%[1]s dump --demo drilldown -o yaml
		`, meta.CLIName)))
)

func NewDumpCmd() (*cobra.Command, error) {
	dumpCmd := &cobra.Command{
		Use:     dumpUse,
		Short:   dumpShort,
		Long:    dumpLong,
		Example: dumpExamples,
		Aliases: []string{"d", "D"},
		Args:    verbs.SingleDocumentArg,
		PersistentPreRun: func(c *cobra.Command, _ []string) {
			c.SetContext(context.WithValue(c.Context(), verbs.Verb, Verb))
		},
		PreRunE: func(c *cobra.Command, args []string) error {
			cfg, err := cmd.BuildHelper(c, args).GetConfig()
			if err != nil {
				return err
			}
			return jq.BindFlags(cfg, c.Flags())
		},
		RunE: func(c *cobra.Command, args []string) error {
			return run(cmd.BuildHelper(c, args))
		},
	}

	document.AddFlags(dumpCmd.Flags())
	jq.AddFlags(dumpCmd.Flags())
	dumpCmd.Flags().String(common.DemoFlagName, "",
		fmt.Sprintf("Dump a built-in example instead of a document. Allowed: [ %s ]",
			strings.Join(demo.Names(), "|")))

	return dumpCmd, nil
}

func run(helper cmd.Helper) error {
	c := helper.GetCmd()
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	outType, err := helper.GetOutputFormat()
	if err != nil {
		return err
	}
	settings, err := jq.ResolveSettings(c, cfg)
	if err != nil {
		return err
	}
	if err := jq.ValidateOutputFormat(outType, settings); err != nil {
		return err
	}
	logger, err := helper.GetLogger()
	if err != nil {
		return err
	}

	table, err := loadTable(helper)
	if err != nil {
		return err
	}
	logger.Debug("dumping model",
		slog.String("title", table.Title),
		slog.String("output", outType.String()),
		slog.String("filter", settings.Filter))

	out := helper.GetStreams().Out
	switch outType {
	case common.TEXT:
		markdown := outline.Markdown(table)
		if iostreams.IsTerminal(out) {
			markdown = outline.Render(markdown, outline.Options{
				NoColor: termenv.EnvNoColor(),
				Width:   iostreams.TerminalWidth(out, 80),
			})
		}
		_, err = fmt.Fprintln(out, strings.TrimRight(markdown, "\n"))
	case common.JSON:
		err = printJSON(helper, model.Encode(table), settings)
	case common.YAML:
		err = printYAML(helper, model.Encode(table), settings)
	}
	if err != nil {
		return cmd.PrepareExecutionError("failed to write output", err, c)
	}
	return nil
}

func loadTable(helper cmd.Helper) (model.Table, error) {
	c := helper.GetCmd()
	demoName, err := c.Flags().GetString(common.DemoFlagName)
	if err != nil {
		return model.Table{}, &cmd.ConfigurationError{Err: err}
	}
	if strings.TrimSpace(demoName) != "" {
		if len(helper.GetArgs()) > 0 {
			return model.Table{}, &cmd.ConfigurationError{
				Err: fmt.Errorf("--%s cannot be combined with a document argument", common.DemoFlagName),
			}
		}
		example, err := demo.Lookup(demoName)
		if err != nil {
			return model.Table{}, &cmd.ConfigurationError{Err: err}
		}
		return example.Table()
	}

	// --jq filters the output here, so only --query selects the table
	opts, err := document.OptionsFrom(c, false)
	if err != nil {
		return model.Table{}, err
	}
	doc, err := document.Load(document.PathArg(helper.GetArgs()), helper.GetStreams().In, opts)
	if err != nil {
		return model.Table{}, cmd.PrepareExecutionError("failed to load the model document", err, c)
	}
	table, err := document.Table(doc, opts)
	if err != nil {
		return model.Table{}, cmd.PrepareExecutionError("failed to decode the model document", err, c)
	}
	return table, nil
}

func printJSON(helper cmd.Helper, encoded map[string]any, settings jq.Settings) error {
	out := helper.GetStreams().Out
	if !jq.HasFilter(settings) {
		return jq.PrintJSON(out, encoded, settings)
	}
	if settings.RawOutput {
		return jq.WriteRaw(encoded, settings.Filter, out)
	}
	filtered, err := jq.ApplyFilter(encoded, settings.Filter)
	if err != nil {
		return &cmd.ConfigurationError{Err: err}
	}
	return jq.PrintJSON(out, filtered, settings)
}

func printYAML(helper cmd.Helper, encoded map[string]any, settings jq.Settings) error {
	var value any = encoded
	if jq.HasFilter(settings) {
		filtered, err := jq.ApplyFilter(encoded, settings.Filter)
		if err != nil {
			return &cmd.ConfigurationError{Err: err}
		}
		value = filtered
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	_, err = helper.GetStreams().Out.Write(data)
	return err
}
