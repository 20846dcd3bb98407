package listview

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/kong/tablemodel/internal/cell"
	"github.com/kong/tablemodel/internal/datasource"
	"github.com/kong/tablemodel/internal/model"
)

type rowKind int

const (
	rowHeader rowKind = iota
	rowItem
	rowFooter
	rowSpacer
)

type row struct {
	kind rowKind
	text string
	path model.IndexPath
}

type boundCell struct {
	kind     cell.Kind
	renderer cell.Renderer
}

// screen is one level of the navigation stack. Renderers are bound only to
// the rows currently on screen and go back to the queue when they scroll out.
type screen struct {
	adapter    *datasource.Adapter
	label      string
	origin     string
	// scope names this screen by the trail of items opened to reach it
	scope      string
	restore    func(scope string, item model.Item, r cell.Renderer)
	rows       []row
	selectable []int
	cursor     int
	offset     int
	bound      map[model.IndexPath]boundCell
}

func newScreen(adapter *datasource.Adapter, label string) *screen {
	s := &screen{
		adapter: adapter,
		label:   label,
		bound:   map[model.IndexPath]boundCell{},
	}
	s.rows = buildRows(adapter)
	for i, r := range s.rows {
		if r.kind == rowItem {
			s.selectable = append(s.selectable, i)
		}
	}
	if len(s.selectable) == 0 {
		s.cursor = -1
	}
	return s
}

func buildRows(a *datasource.Adapter) []row {
	var rows []row
	for section := range a.NumberOfSections() {
		if section > 0 {
			rows = append(rows, row{kind: rowSpacer})
		}
		if header, ok := a.Header(section); ok && strings.TrimSpace(header) != "" {
			rows = append(rows, row{kind: rowHeader, text: header})
		}
		for r := range a.NumberOfRows(section) {
			rows = append(rows, row{kind: rowItem, path: model.IndexPath{Section: section, Row: r}})
		}
		if footer, ok := a.Footer(section); ok && strings.TrimSpace(footer) != "" {
			rows = append(rows, row{kind: rowFooter, text: footer})
		}
	}
	return rows
}

// current returns the path of the highlighted item.
func (s *screen) current() (model.IndexPath, bool) {
	if s.cursor < 0 || s.cursor >= len(s.selectable) {
		return model.IndexPath{}, false
	}
	return s.rows[s.selectable[s.cursor]].path, true
}

func (s *screen) currentItem() (model.Item, bool) {
	path, ok := s.current()
	if !ok {
		return model.Item{}, false
	}
	return s.adapter.Item(path), true
}

func (s *screen) move(delta int) {
	if len(s.selectable) == 0 {
		return
	}
	s.cursor = clamp(s.cursor+delta, 0, len(s.selectable)-1)
}

func (s *screen) moveTo(index int) {
	if len(s.selectable) == 0 {
		return
	}
	s.cursor = clamp(index, 0, len(s.selectable)-1)
}

// focus moves the cursor to the item with identifier. It reports false when
// the table has no such item.
func (s *screen) focus(identifier string) bool {
	path, ok := s.adapter.Table().IndexOf(identifier)
	if !ok {
		return false
	}
	for i, rowIndex := range s.selectable {
		if s.rows[rowIndex].path == path {
			s.cursor = i
			return true
		}
	}
	return false
}

func (s *screen) labelAt(index int) string {
	if index < 0 || index >= len(s.selectable) {
		return ""
	}
	item := s.adapter.Item(s.rows[s.selectable[index]].path)
	if title := item.Title(); title != "" {
		return title
	}
	return item.Identifier
}

// cellAt returns the renderer bound to path, binding one when the row has
// none yet.
func (s *screen) cellAt(path model.IndexPath, q *cell.Queue) (cell.Renderer, error) {
	if b, ok := s.bound[path]; ok {
		return b.renderer, nil
	}
	r, err := s.adapter.CellFor(path, q)
	if err != nil {
		return nil, err
	}
	if s.restore != nil {
		s.restore(s.scope, s.adapter.Item(path), r)
	}
	s.bound[path] = boundCell{kind: s.adapter.Kind(path), renderer: r}
	return r, nil
}

func (s *screen) release(path model.IndexPath, q *cell.Queue) {
	b, ok := s.bound[path]
	if !ok {
		return
	}
	q.Enqueue(b.kind, b.renderer)
	delete(s.bound, path)
}

func (s *screen) releaseAll(q *cell.Queue) {
	for path := range s.bound {
		s.release(path, q)
	}
}

func (s *screen) renderRow(index, width int, q *cell.Queue, st styles) (string, error) {
	r := s.rows[index]
	switch r.kind {
	case rowHeader:
		return renderHeader(r.text, width, st), nil
	case rowFooter:
		return renderFooter(r.text, width, st), nil
	case rowSpacer:
		return "", nil
	}
	renderer, err := s.cellAt(r.path, q)
	if err != nil {
		return "", err
	}
	selected := s.cursor >= 0 && s.selectable[s.cursor] == index
	return renderContent(renderer.Content(), width, selected, st), nil
}

// render draws the rows that fit in height lines, scrolling so the cursor
// stays visible. Rows outside the window give their renderers back to q.
func (s *screen) render(q *cell.Queue, width, height int, st styles, logger *slog.Logger) (string, error) {
	if len(s.rows) == 0 {
		return st.muted.Render("No items."), nil
	}

	blocks := make(map[int]string)
	heightOf := func(index int) (int, error) {
		if block, ok := blocks[index]; ok {
			return lipgloss.Height(block), nil
		}
		block, err := s.renderRow(index, width, q, st)
		if err != nil {
			return 0, err
		}
		blocks[index] = block
		return lipgloss.Height(block), nil
	}

	cursorRow := -1
	if s.cursor >= 0 {
		cursorRow = s.selectable[s.cursor]
	}
	if cursorRow >= 0 && cursorRow < s.offset {
		s.offset = cursorRow
		for s.offset > 0 && s.rows[s.offset-1].kind == rowHeader {
			s.offset--
		}
	}
	// every row takes at least one line
	if height > 0 && cursorRow-s.offset >= height {
		s.offset = cursorRow - height + 1
	}
	s.offset = clamp(s.offset, 0, len(s.rows)-1)
	if height > 0 {
		s.releaseOutside(s.offset, s.offset+height-1, q)
	}

	if height > 0 && cursorRow >= s.offset {
		used := 0
		heights := make([]int, 0, cursorRow-s.offset+1)
		for i := s.offset; i <= cursorRow; i++ {
			h, err := heightOf(i)
			if err != nil {
				return "", err
			}
			heights = append(heights, h)
			used += h
		}
		for used > height && s.offset < cursorRow {
			used -= heights[0]
			heights = heights[1:]
			s.offset++
		}
	}

	var out []string
	used := 0
	last := s.offset - 1
	for i := s.offset; i < len(s.rows); i++ {
		if height > 0 && used >= height && i > cursorRow {
			break
		}
		h, err := heightOf(i)
		if err != nil {
			return "", err
		}
		if height > 0 && used+h > height && i > cursorRow {
			break
		}
		out = append(out, blocks[i])
		used += h
		last = i
	}

	if recycled := s.releaseOutside(s.offset, last, q); recycled > 0 && logger != nil {
		logger.Debug("recycled off-screen cells",
			slog.Int("count", recycled),
			slog.Int("offset", s.offset),
			slog.Int("bound", len(s.bound)))
	}

	return strings.Join(out, "\n"), nil
}

// releaseOutside returns the renderers of rows outside [first, last] to q.
func (s *screen) releaseOutside(first, last int, q *cell.Queue) int {
	released := 0
	for path := range s.bound {
		index := s.rowIndexOf(path)
		if index < first || index > last {
			s.release(path, q)
			released++
		}
	}
	return released
}

func (s *screen) rowIndexOf(path model.IndexPath) int {
	for _, index := range s.selectable {
		if s.rows[index].path == path {
			return index
		}
	}
	return -1
}

func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}
