package view

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kong/tablemodel/internal/cell"
	cmdpkg "github.com/kong/tablemodel/internal/cmd"
	"github.com/kong/tablemodel/internal/cmd/common"
	"github.com/kong/tablemodel/internal/cmd/document"
	"github.com/kong/tablemodel/internal/cmd/output/jq"
	"github.com/kong/tablemodel/internal/cmd/output/listview"
	"github.com/kong/tablemodel/internal/cmd/root/verbs"
	"github.com/kong/tablemodel/internal/config"
	"github.com/kong/tablemodel/internal/datasource"
	"github.com/kong/tablemodel/internal/demo"
	"github.com/kong/tablemodel/internal/loader"
	"github.com/kong/tablemodel/internal/log"
	"github.com/kong/tablemodel/internal/meta"
	"github.com/kong/tablemodel/internal/model"
	"github.com/kong/tablemodel/internal/util/i18n"
	"github.com/kong/tablemodel/internal/util/normalizers"
	"github.com/spf13/cobra"
)

const (
	Verb = verbs.View
)

var (
	viewUse = Verb.String() + " [FILE]"

	viewShort = i18n.T("root.verbs.view.viewShort", "Browse a model document interactively")

	viewLong = normalizers.LongDesc(i18n.T("root.verbs.view.viewLong",
		`Open an interactive list for a model document.

The document is a table with a title and sections of items. Items whose data
holds a child table can be selected to drill down, and esc goes back. Each
item is drawn by a cell kind chosen by the view.default-cell and view.cells
configuration. When the output is not a terminal the root table is printed
once instead.

Without FILE the document is read from standard input.`))

	viewExamples = normalizers.Examples(i18n.T("root.verbs.view.viewExamples",
		fmt.Sprintf(`
		# Browse a model file
		%[1]s view settings.yaml
		# Browse the table under screens.main and reload when the file changes
		%[1]s view app.json --query screens.main --watch
		# Draw every item with the subtitle cell
		%[1]s view settings.yaml --cell subtitle
		# Show one of the built-in examples (settings, drilldown, repos)
		%[1]s view --demo repos
		`, meta.CLIName)))
)

// NewViewCmd creates the view command.
func NewViewCmd() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:     viewUse,
		Short:   viewShort,
		Long:    viewLong,
		Example: viewExamples,
		Aliases: []string{"v", "V"},
		Args:    verbs.SingleDocumentArg,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmd.SetContext(context.WithValue(cmd.Context(), verbs.Verb, Verb))
		},
		PreRunE: bindFlags,
		RunE: func(c *cobra.Command, args []string) error {
			return run(cmdpkg.BuildHelper(c, args))
		},
	}

	document.AddFlags(cmd.Flags())
	jq.AddSelectFlag(cmd.Flags())

	cmd.Flags().String(common.DefaultCellFlagName, common.DefaultDefaultCellValue,
		fmt.Sprintf(`Cell kind for items without an entry in %s.
Identifiers in that mapping match items without regard to case.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.CellsConfigPath, common.DefaultCellConfigPath, strings.Join(cell.KindNames(), "|")))

	cmd.Flags().String(common.TemplatesDirFlagName, "",
		fmt.Sprintf(`Directory template cells are read from. Defaults to the directory of FILE.
- Config path: [ %s ]`,
			common.TemplatesDirConfigPath))

	cmd.Flags().Bool(common.WatchFlagName, false,
		fmt.Sprintf(`Reload the document when FILE changes.
- Config path: [ %s ]`,
			common.WatchConfigPath))

	cmd.Flags().String(common.DemoFlagName, "",
		fmt.Sprintf("Show a built-in example instead of a document. Allowed: [ %s ]",
			strings.Join(demo.Names(), "|")))

	return cmd, nil
}

func bindFlags(c *cobra.Command, args []string) error {
	helper := cmdpkg.BuildHelper(c, args)
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}

	bindings := []struct{ flag, cfgPath string }{
		{common.DefaultCellFlagName, common.DefaultCellConfigPath},
		{common.TemplatesDirFlagName, common.TemplatesDirConfigPath},
		{common.WatchFlagName, common.WatchConfigPath},
	}
	for _, b := range bindings {
		if f := c.Flags().Lookup(b.flag); f != nil {
			if err := cfg.BindFlag(b.cfgPath, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// screen is what run hands to the list view.
type screen struct {
	table     model.Table
	selector  datasource.KindSelector
	templates fs.FS
	label     string
	// path is the file to watch, empty when there is none
	path string
	opts document.Options
}

func run(helper cmdpkg.Helper) error {
	c := helper.GetCmd()
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	logger, err := helper.GetLogger()
	if err != nil {
		return err
	}
	streams := helper.GetStreams()

	demoName, err := c.Flags().GetString(common.DemoFlagName)
	if err != nil {
		return &cmdpkg.ConfigurationError{Err: err}
	}

	var s screen
	if strings.TrimSpace(demoName) != "" {
		if len(helper.GetArgs()) > 0 {
			return &cmdpkg.ConfigurationError{
				Err: fmt.Errorf("--%s cannot be combined with a document argument", common.DemoFlagName),
			}
		}
		s, err = demoScreen(demoName, cfg)
	} else {
		s, err = documentScreen(helper, cfg)
	}
	if err != nil {
		return err
	}

	ctx := log.WithCommandLogContext(helper.GetContext(), log.CommandLogContext{
		Document: s.label,
		Profile:  cfg.GetProfile(),
	})
	logger = log.LoggerWithContext(ctx, logger)

	opts := []listview.Option{
		listview.WithSelector(s.selector),
		listview.WithLogger(logger),
		listview.WithRootLabel(s.label),
		listview.WithProfileName(cfg.GetProfile()),
		listview.WithActionHandler(func(a datasource.Action) {
			logger.Debug("item action",
				slog.String("id", a.Item.Identifier),
				slog.String("event", a.Event.Kind.String()),
				slog.String("value", a.Event.Value.String()))
		}),
	}
	if s.templates != nil {
		opts = append(opts, listview.WithQueueOptions(cell.WithTemplates(s.templates)))
	}

	if s.path != "" && cfg.GetBool(common.WatchConfigPath) {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		reloads, err := watch(watchCtx, s, cfg.GetDuration(common.WatchDebounceConfigPath), logger)
		if err != nil {
			return cmdpkg.PrepareExecutionError("failed to watch the model document", err, c)
		}
		opts = append(opts,
			listview.WithReloads(reloads),
			listview.WithFooter(fmt.Sprintf("Watching %s", filepath.Base(s.path))))
	}

	// errors belong in the log file while the terminal is owned by the view
	log.DisableErrorMirroring()
	defer log.EnableErrorMirroring()

	logger.Info("opening view",
		slog.String("title", s.table.Title),
		slog.Int("sections", len(s.table.Sections)))

	if err := listview.Render(streams, s.table, opts...); err != nil {
		var cellErr *cell.ConfigurationError
		if errors.As(err, &cellErr) {
			return cmdpkg.PrepareExecutionError("invalid cell configuration", err, c,
				slog.String("kind", cellErr.Kind.String()))
		}
		return cmdpkg.PrepareExecutionError("failed to render the view", err, c)
	}
	return nil
}

func demoScreen(name string, cfg config.Hook) (screen, error) {
	example, err := demo.Lookup(name)
	if err != nil {
		return screen{}, &cmdpkg.ConfigurationError{Err: err}
	}
	table, err := example.Table()
	if err != nil {
		return screen{}, err
	}
	templates := demo.Templates()
	if dir := strings.TrimSpace(cfg.GetString(common.TemplatesDirConfigPath)); dir != "" {
		templates = os.DirFS(dir)
	}
	return screen{
		table:     table,
		selector:  example.Selector,
		templates: templates,
		label:     example.Name,
	}, nil
}

func documentScreen(helper cmdpkg.Helper, cfg config.Hook) (screen, error) {
	c := helper.GetCmd()
	opts, err := document.OptionsFrom(c, true)
	if err != nil {
		return screen{}, err
	}

	selector, err := configuredSelector(
		cfg.GetString(common.DefaultCellConfigPath),
		cfg.GetStringMapString(common.CellsConfigPath))
	if err != nil {
		return screen{}, &cmdpkg.ConfigurationError{Err: err}
	}

	path := document.PathArg(helper.GetArgs())
	doc, err := document.Load(path, helper.GetStreams().In, opts)
	if err != nil {
		return screen{}, cmdpkg.PrepareExecutionError("failed to load the model document", err, c)
	}
	table, err := document.Table(doc, opts)
	if err != nil {
		return screen{}, cmdpkg.PrepareExecutionError("failed to decode the model document", err, c)
	}

	s := screen{table: table, selector: selector, label: table.Title, opts: opts}
	if doc.Path != document.StdinPath {
		s.path = doc.Path
		s.label = filepath.Base(doc.Path)
	}

	dir := strings.TrimSpace(cfg.GetString(common.TemplatesDirConfigPath))
	if dir == "" && s.path != "" {
		dir = filepath.Dir(s.path)
	}
	if dir != "" {
		s.templates = os.DirFS(dir)
	}
	return s, nil
}

// watch turns file changes into reloads of the document.
func watch(ctx context.Context, s screen, debounce time.Duration, logger *slog.Logger) (<-chan listview.Reload, error) {
	changes, err := loader.Watch(ctx, s.path, debounce, logger)
	if err != nil {
		return nil, err
	}
	reloads := make(chan listview.Reload)
	go func() {
		defer close(reloads)
		for change := range changes {
			reload := reloadDocument(change, s.opts)
			if reload.Err != nil {
				logger.Warn("model reload failed", slog.String("path", change.Path), slog.Any("error", reload.Err))
			} else {
				logger.Info("model reloaded", slog.String("path", change.Path))
			}
			select {
			case reloads <- reload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return reloads, nil
}

func reloadDocument(change loader.Change, opts document.Options) listview.Reload {
	if change.Err != nil {
		return listview.Reload{Err: change.Err}
	}
	doc, err := document.Load(change.Path, nil, opts)
	if err != nil {
		return listview.Reload{Err: err}
	}
	table, err := document.Table(doc, opts)
	if err != nil {
		return listview.Reload{Err: err}
	}
	return listview.Reload{Table: table}
}
