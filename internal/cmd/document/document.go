// Package document reads the model document a command was pointed at and
// narrows it to the table object the command works on.
package document

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kong/tablemodel/internal/cmd"
	"github.com/kong/tablemodel/internal/cmd/common"
	"github.com/kong/tablemodel/internal/cmd/output/jq"
	"github.com/kong/tablemodel/internal/loader"
	"github.com/kong/tablemodel/internal/mapping"
	"github.com/kong/tablemodel/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// StdinPath selects standard input as the document source.
const StdinPath = "-"

// AddFlags registers --format and --query.
func AddFlags(flags *pflag.FlagSet) {
	flags.String(common.FormatFlagName, "",
		"Document format (json, yaml or toml). Defaults to the file extension, or yaml for stdin.")
	flags.String(common.QueryFlagName, "",
		"JMESPath expression selecting the table object inside the document.")
}

// Options controls how a document is read and narrowed.
type Options struct {
	Format loader.Format
	// Query is a JMESPath expression, applied first.
	Query string
	// Filter is a jq expression, applied to the result of Query.
	Filter string
}

// OptionsFrom reads the document flags of command. useJQ reports whether --jq
// selects the table, as opposed to filtering output.
func OptionsFrom(command *cobra.Command, useJQ bool) (Options, error) {
	var opts Options
	flags := command.Flags()

	if f := flags.Lookup(common.FormatFlagName); f != nil && strings.TrimSpace(f.Value.String()) != "" {
		format, err := loader.ParseFormat(f.Value.String())
		if err != nil {
			return Options{}, &cmd.ConfigurationError{Err: err}
		}
		opts.Format = format
	}
	if f := flags.Lookup(common.QueryFlagName); f != nil {
		opts.Query = strings.TrimSpace(f.Value.String())
	}
	if useJQ {
		if f := flags.Lookup(jq.FlagName); f != nil {
			opts.Filter = strings.TrimSpace(f.Value.String())
		}
	}
	return opts, nil
}

// Select narrows root to the table object. It has the shape of a
// validate.Selector.
func (o Options) Select(root any) (any, error) {
	selected, err := loader.Select(root, o.Query)
	if err != nil {
		return nil, err
	}
	if o.Filter == "" {
		return selected, nil
	}
	return jq.Select(selected, o.Filter)
}

// Load reads the document at path, or from in when path is empty or "-".
func Load(path string, in io.Reader, opts Options) (loader.Document, error) {
	if path == "" || path == StdinPath {
		if in == nil {
			return loader.Document{}, fmt.Errorf("no document given and standard input is not available")
		}
		format := opts.Format
		if format == "" {
			format = loader.FormatYAML
		}
		root, err := loader.Read(in, format)
		if err != nil {
			return loader.Document{}, fmt.Errorf("failed to load standard input: %w", err)
		}
		return loader.Document{Path: StdinPath, Format: format, Root: root}, nil
	}

	if opts.Format == "" {
		return loader.LoadFile(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return loader.Document{}, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()
	root, err := loader.Read(f, opts.Format)
	if err != nil {
		return loader.Document{}, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return loader.Document{Path: path, Format: opts.Format, Root: root}, nil
}

// Table selects and decodes the table of doc. Decode failures name the key
// path they happened at.
func Table(doc loader.Document, opts Options) (model.Table, error) {
	selected, err := opts.Select(doc.Root)
	if err != nil {
		return model.Table{}, err
	}
	table, err := model.Decode(selected)
	if err != nil {
		if path := mapping.Path(err); path != "" {
			return model.Table{}, fmt.Errorf("%s: invalid model at %s: %w", doc.Path, path, err)
		}
		return model.Table{}, fmt.Errorf("%s: invalid model: %w", doc.Path, err)
	}
	return table, nil
}

// PathArg returns the document argument, or "" when none was given.
func PathArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
