// Package listview presents a model table as an interactive sectioned list.
// Rows are drawn by cell renderers obtained through a datasource adapter, and
// selecting an item with a child table pushes a new screen.
package listview

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kong/tablemodel/internal/cell"
	"github.com/kong/tablemodel/internal/datasource"
	"github.com/kong/tablemodel/internal/image"
	"github.com/kong/tablemodel/internal/iostreams"
	"github.com/kong/tablemodel/internal/model"
	"github.com/kong/tablemodel/internal/theme"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Reload carries a replacement root table, or the error that kept one from
// being produced.
type Reload struct {
	Table model.Table
	Err   error
}

type fdProvider interface {
	Fd() uintptr
}

type config struct {
	selector    datasource.KindSelector
	queueOpts   []cell.QueueOption
	resolver    image.Resolver
	logger      *slog.Logger
	onAction    func(datasource.Action)
	reloads     <-chan Reload
	rootLabel   string
	profileName string
	footer      string
	interactive *bool
}

type Option func(*config)

// WithSelector sets how items map to cell kinds.
func WithSelector(selector datasource.KindSelector) Option {
	return func(c *config) { c.selector = selector }
}

// WithQueueOptions passes options to the renderer queue, such as the template
// file system.
func WithQueueOptions(opts ...cell.QueueOption) Option {
	return func(c *config) { c.queueOpts = append(c.queueOpts, opts...) }
}

func WithImageResolver(resolver image.Resolver) Option {
	return func(c *config) { c.resolver = resolver }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithActionHandler receives every renderer event after the view has shown it.
func WithActionHandler(fn func(datasource.Action)) Option {
	return func(c *config) { c.onAction = fn }
}

// WithReloads replaces the root table each time a value arrives on ch.
func WithReloads(ch <-chan Reload) Option {
	return func(c *config) { c.reloads = ch }
}

func WithRootLabel(label string) Option {
	return func(c *config) { c.rootLabel = label }
}

func WithProfileName(name string) Option {
	return func(c *config) { c.profileName = name }
}

func WithFooter(msg string) Option {
	return func(c *config) { c.footer = msg }
}

// WithInteractive overrides terminal detection.
func WithInteractive(interactive bool) Option {
	return func(c *config) { c.interactive = &interactive }
}

// Render shows table on streams. A terminal gets the interactive list; any
// other writer gets the root screen printed once.
func Render(streams *iostreams.IOStreams, table model.Table, opts ...Option) error {
	if streams == nil || streams.Out == nil {
		return errors.New("listview: output stream is not available")
	}

	cfg := config{
		selector: datasource.PlainSelector,
		resolver: image.IconResolver{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	width, height, isTTY := resolveTerminal(streams.Out)
	if cfg.interactive != nil {
		isTTY = *cfg.interactive
	}
	if !isTTY {
		return renderStatic(streams.Out, table, cfg, width)
	}

	var program atomic.Pointer[tea.Program]
	loaderOpts := []image.AsyncOption{image.WithNotify(func() {
		if p := program.Load(); p != nil {
			p.Send(imageLoadedMsg{})
		}
	})}
	if cfg.logger != nil {
		loaderOpts = append(loaderOpts, image.WithLogger(cfg.logger))
	}
	loader := image.NewAsyncLoader(cfg.resolver, loaderOpts...)

	queue := newQueue(cfg, loader)
	m := newBubbleModel(table, queue, cfg, theme.Current(), width, height)
	if err := m.refresh(); err != nil {
		return err
	}

	p := tea.NewProgram(m,
		tea.WithInput(streams.In),
		tea.WithOutput(streams.Out),
		tea.WithAltScreen(),
	)
	program.Store(p)

	final, err := p.Run()
	if err != nil {
		return err
	}
	if bm, ok := final.(*bubbleModel); ok && bm.err != nil {
		return bm.err
	}
	return nil
}

func newQueue(cfg config, loader image.Loader) *cell.Queue {
	opts := append([]cell.QueueOption{cell.WithImageLoader(loader)}, cfg.queueOpts...)
	if cfg.logger != nil {
		opts = append(opts, cell.WithLogger(cfg.logger))
	}
	return cell.NewQueue(opts...)
}

// renderStatic prints every row of the root screen. Each renderer goes back to
// the queue as soon as its row is drawn.
func renderStatic(out io.Writer, table model.Table, cfg config, width int) error {
	palette := theme.Current()
	st := newStyles(palette)
	box := newListBoxStyle(palette)
	inner := max(1, width-box.GetHorizontalFrameSize())

	queue := newQueue(cfg, syncLoader{resolver: cfg.resolver})
	adapterOpts := []datasource.Option{}
	if cfg.logger != nil {
		adapterOpts = append(adapterOpts, datasource.WithLogger(cfg.logger))
	}
	s := newScreen(datasource.New(table, cfg.selector, adapterOpts...), table.Title)
	s.cursor = -1

	var blocks []string
	if title := strings.TrimSpace(table.Title); title != "" {
		blocks = append(blocks, st.heading.Render(title), "")
	}
	if len(s.rows) == 0 {
		blocks = append(blocks, st.muted.Render("No items."))
	}
	for i, r := range s.rows {
		block, err := s.renderRow(i, inner, queue, st)
		if err != nil {
			return err
		}
		if r.kind == rowItem {
			s.release(r.path, queue)
		}
		blocks = append(blocks, block)
	}

	view := box.Render(lipgloss.JoinVertical(lipgloss.Left, blocks...))
	_, err := fmt.Fprintln(out, view)
	return err
}

// syncLoader resolves images on the calling goroutine.
type syncLoader struct {
	resolver image.Resolver
}

func (l syncLoader) Load(ref string, target image.Target) {
	if img, ok := l.resolver.Resolve(ref); ok {
		target.Deliver(img)
	}
}

func newListBoxStyle(p theme.Palette) lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Adaptive(theme.ColorBorder)).
		Padding(0, 1)
}

func newStatusBoxStyle(p theme.Palette) lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(p.Adaptive(theme.ColorBorder)).
		Padding(0, 1)
}

func resolveTerminal(out io.Writer) (width int, height int, isTTY bool) {
	const defaultWidth = 80
	const defaultHeight = 24

	width, height = defaultWidth, defaultHeight

	fp, ok := out.(fdProvider)
	if !ok {
		return width, height, false
	}
	fd := fp.Fd()
	if fd == ^uintptr(0) {
		return width, height, false
	}

	isTTY = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	if w, h, err := term.GetSize(int(fd)); err == nil {
		width, height = w, h
	}
	return width, height, isTTY
}
