// Package datasource adapts a model.Table to the indexing contract of a list
// widget: counts, section decoration, a bound renderer per row and drill-down
// navigation into child tables.
package datasource

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kong/tablemodel/internal/cell"
	"github.com/kong/tablemodel/internal/log"
	"github.com/kong/tablemodel/internal/model"
)

// KindSelector chooses the cell kind for the item at path.
type KindSelector func(item model.Item, path model.IndexPath, table model.Table) cell.Kind

// PlainSelector renders every item with the plain kind.
func PlainSelector(model.Item, model.IndexPath, model.Table) cell.Kind {
	return cell.Plain
}

// Dequeuer hands out renderers for kinds.
type Dequeuer interface {
	Dequeue(kind cell.Kind) (cell.Renderer, error)
}

// Action is an event raised by the renderer bound to the item at Path.
type Action struct {
	Path  model.IndexPath
	Item  model.Item
	Event cell.Event
}

// Navigation is the result of a selection. Push is set when the host should
// present a new screen.
type Navigation struct {
	Push *Adapter
}

// Adapter serves one table. It owns the table for its lifetime.
type Adapter struct {
	table    model.Table
	selector KindSelector
	onAction func(Action)
	logger   *slog.Logger
	depth    int
}

type Option func(*Adapter)

// WithActionHandler sets the function that receives renderer events.
func WithActionHandler(fn func(Action)) Option {
	return func(a *Adapter) { a.onAction = fn }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) { a.logger = logger }
}

func New(table model.Table, selector KindSelector, opts ...Option) *Adapter {
	if selector == nil {
		selector = PlainSelector
	}
	a := &Adapter{table: table, selector: selector}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Table() model.Table { return a.table }

func (a *Adapter) Title() string { return a.table.Title }

// Depth is zero for a root adapter and grows by one per drill-down.
func (a *Adapter) Depth() int { return a.depth }

func (a *Adapter) NumberOfSections() int {
	return len(a.table.Sections)
}

func (a *Adapter) NumberOfRows(section int) int {
	return len(a.section(section).Items)
}

func (a *Adapter) Header(section int) (string, bool) {
	s := a.section(section)
	if s.Header == nil {
		return "", false
	}
	return *s.Header, true
}

func (a *Adapter) Footer(section int) (string, bool) {
	s := a.section(section)
	if s.Footer == nil {
		return "", false
	}
	return *s.Footer, true
}

// Item returns the item at path. An out of range path panics.
func (a *Adapter) Item(path model.IndexPath) model.Item {
	items := a.section(path.Section).Items
	if path.Row < 0 || path.Row >= len(items) {
		panic(fmt.Sprintf("datasource: row %d out of range [0, %d) in section %d",
			path.Row, len(items), path.Section))
	}
	return items[path.Row]
}

// Kind returns the kind the selector chose for the item at path.
func (a *Adapter) Kind(path model.IndexPath) cell.Kind {
	return a.selector(a.Item(path), path, a.table)
}

// CellFor obtains a renderer for the item at path from q and binds the item
// to it. A *cell.ConfigurationError from q is returned unchanged.
func (a *Adapter) CellFor(path model.IndexPath, q Dequeuer) (cell.Renderer, error) {
	item := a.Item(path)
	kind := a.selector(item, path, a.table)

	r, err := q.Dequeue(kind)
	if err != nil {
		return nil, err
	}
	if a.onAction != nil {
		handler := a.onAction
		r.OnAction(func(e cell.Event) {
			handler(Action{Path: path, Item: item, Event: e})
		})
	} else {
		r.OnAction(nil)
	}
	r.Update(item)

	a.trace("bound cell",
		slog.String("path", path.String()),
		slog.String("id", item.Identifier),
		slog.String("kind", kind.String()))
	return r, nil
}

// DidSelect handles a selection of the item at path. Items with a non-empty
// child table produce a push of a new adapter for that table; anything else
// produces no navigation.
func (a *Adapter) DidSelect(path model.IndexPath) (Navigation, bool) {
	item := a.Item(path)
	child := item.Child()
	if child == nil {
		return Navigation{}, false
	}
	if a.logger != nil {
		a.logger.Debug("drilling into child table",
			slog.String("id", item.Identifier),
			slog.String("title", child.Title),
			slog.Int("depth", a.depth+1))
	}
	return Navigation{Push: a.child(*child)}, true
}

func (a *Adapter) child(table model.Table) *Adapter {
	return &Adapter{
		table:    table,
		selector: a.selector,
		onAction: a.onAction,
		logger:   a.logger,
		depth:    a.depth + 1,
	}
}

func (a *Adapter) section(section int) model.Section {
	if section < 0 || section >= len(a.table.Sections) {
		panic(fmt.Sprintf("datasource: section %d out of range [0, %d)",
			section, len(a.table.Sections)))
	}
	return a.table.Sections[section]
}

func (a *Adapter) trace(msg string, attrs ...slog.Attr) {
	if a.logger == nil {
		return
	}
	a.logger.LogAttrs(context.Background(), log.LevelTrace, msg, attrs...)
}
