package listview

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kong/tablemodel/internal/cell"
	"github.com/kong/tablemodel/internal/datasource"
	"github.com/kong/tablemodel/internal/mapping"
	"github.com/kong/tablemodel/internal/model"
	"github.com/kong/tablemodel/internal/theme"
)

var writeClipboardText = clipboard.WriteAll

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Home      key.Binding
	End       key.Binding
	Select    key.Binding
	Back      key.Binding
	Copy      key.Binding
	Theme     key.Binding
	Help      key.Binding
	AltScreen key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k", "ctrl+p"), key.WithHelp("↑/k", "move up")),
		Down:      key.NewBinding(key.WithKeys("down", "j", "ctrl+n"), key.WithHelp("↓/j", "move down")),
		PageUp:    key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown:  key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdown", "page down")),
		Home:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g/home", "first item")),
		End:       key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G/end", "last item")),
		Select:    key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "open, toggle or edit")),
		Back:      key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc/backspace", "go back")),
		Copy:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy item id")),
		Theme:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "cycle color theme")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle this help")),
		AltScreen: key.NewBinding(key.WithKeys("ctrl+w"), key.WithHelp("ctrl+w", "toggle full screen")),
		Quit:      key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) helpBindings() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Back, k.Copy, k.Theme, k.AltScreen, k.Help, k.Quit}
}

type imageLoadedMsg struct{}

type reloadMsg Reload

type overrideKey struct {
	scope      string
	identifier string
}

type bubbleModel struct {
	stack          []*screen
	queue          *cell.Queue
	selector       datasource.KindSelector
	onAction       func(datasource.Action)
	logger         *slog.Logger
	keys           keyMap
	palette        theme.Palette
	styles         styles
	listStyle      lipgloss.Style
	statusStyle    lipgloss.Style
	rootLabel      string
	footer         string
	profileName    string
	windowWidth    int
	windowHeight   int
	showHelp       bool
	useAltScreen   bool
	statusMessage  string
	editor         cell.Editor
	searchActive   bool
	searchBuffer   []rune
	searchDeadline time.Time
	reloads        <-chan Reload
	// values set through controls, reapplied when a row is bound again
	overrides      map[overrideKey]mapping.Variant
	body           string
	err            error
}

func newBubbleModel(table model.Table, queue *cell.Queue, cfg config, palette theme.Palette, width, height int) *bubbleModel {
	m := &bubbleModel{
		queue:        queue,
		selector:     cfg.selector,
		onAction:     cfg.onAction,
		logger:       cfg.logger,
		keys:         defaultKeyMap(),
		rootLabel:    strings.TrimSpace(cfg.rootLabel),
		footer:       cfg.footer,
		profileName:  strings.TrimSpace(cfg.profileName),
		windowWidth:  width,
		windowHeight: height,
		useAltScreen: true,
		reloads:      cfg.reloads,
		overrides:    map[overrideKey]mapping.Variant{},
	}
	m.applyPalette(palette)
	m.stack = []*screen{m.newScreen(m.newAdapter(table), m.labelForRoot(table), nil, "")}
	return m
}

// newScreen builds a screen opened from the item origin of parent, or the
// root screen when parent is nil.
func (m *bubbleModel) newScreen(adapter *datasource.Adapter, label string, parent *screen, origin string) *screen {
	s := newScreen(adapter, label)
	s.origin = origin
	if parent != nil {
		s.scope = parent.scope + "/" + origin
	}
	s.restore = m.restoreOverride
	return s
}

// restoreOverride puts a value the user set back into a freshly bound renderer.
func (m *bubbleModel) restoreOverride(scope string, item model.Item, r cell.Renderer) {
	value, ok := m.overrides[overrideKey{scope: scope, identifier: item.Identifier}]
	if !ok {
		return
	}
	if sw, ok := r.(interface{ SetOn(bool) }); ok {
		if on, ok := value.AsBool(); ok {
			sw.SetOn(on)
		}
	}
	if field, ok := r.(interface{ SetValue(string) }); ok {
		if text, ok := value.AsString(); ok {
			field.SetValue(text)
		}
	}
}

func (m *bubbleModel) newAdapter(table model.Table) *datasource.Adapter {
	opts := []datasource.Option{datasource.WithActionHandler(m.handleAction)}
	if m.logger != nil {
		opts = append(opts, datasource.WithLogger(m.logger))
	}
	return datasource.New(table, m.selector, opts...)
}

func (m *bubbleModel) labelForRoot(table model.Table) string {
	if m.rootLabel != "" {
		return m.rootLabel
	}
	if title := strings.TrimSpace(table.Title); title != "" {
		return title
	}
	return "root"
}

func (m *bubbleModel) top() *screen {
	return m.stack[len(m.stack)-1]
}

func (m *bubbleModel) applyPalette(p theme.Palette) {
	m.palette = p
	m.styles = newStyles(p)
	m.listStyle = newListBoxStyle(p)
	m.statusStyle = newStatusBoxStyle(p)
}

func (m *bubbleModel) Init() tea.Cmd {
	return m.waitForReload()
}

func (m *bubbleModel) waitForReload() tea.Cmd {
	if m.reloads == nil {
		return nil
	}
	ch := m.reloads
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return nil
		}
		return reloadMsg(r)
	}
}

func (m *bubbleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) { //nolint:ireturn
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
	case imageLoadedMsg:
	case reloadMsg:
		m.applyReload(Reload(msg))
		cmds = append(cmds, m.waitForReload())
	case searchTimeoutMsg:
		if m.searchActive && msg.deadline.Equal(m.searchDeadline) {
			m.exitSearch(false)
		}
	case tea.KeyMsg:
		cmd, quit := m.handleKey(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		if quit {
			return m, tea.Batch(cmds...)
		}
	}

	if m.err == nil {
		if err := m.refresh(); err != nil {
			m.err = err
		}
	}
	if m.err != nil {
		cmds = append(cmds, tea.Quit)
	}
	return m, tea.Batch(cmds...)
}

func (m *bubbleModel) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if m.editor != nil {
		if msg.String() == "ctrl+c" {
			return m.quit(), true
		}
		cmd := m.editor.HandleMsg(msg)
		if !m.editor.Focused() {
			m.editor = nil
			if m.statusMessage == editingStatus {
				m.clearStatus()
			}
		}
		return cmd, false
	}

	if handled, cmd := m.handleSearchKey(msg); handled {
		return cmd, false
	}

	top := m.top()
	switch {
	case key.Matches(msg, m.keys.AltScreen):
		m.useAltScreen = !m.useAltScreen
		if m.useAltScreen {
			return tea.EnterAltScreen, false
		}
		return tea.ExitAltScreen, false
	case key.Matches(msg, m.keys.Quit):
		return m.quit(), true
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, m.keys.Theme):
		m.cycleTheme()
	case key.Matches(msg, m.keys.Back):
		if len(m.stack) > 1 {
			m.pop()
			return nil, false
		}
		if msg.String() == "esc" {
			return m.quit(), true
		}
	case key.Matches(msg, m.keys.Up):
		top.move(-1)
	case key.Matches(msg, m.keys.Down):
		top.move(1)
	case key.Matches(msg, m.keys.PageUp):
		top.move(-m.pageSize())
	case key.Matches(msg, m.keys.PageDown):
		top.move(m.pageSize())
	case key.Matches(msg, m.keys.Home):
		top.moveTo(0)
	case key.Matches(msg, m.keys.End):
		top.moveTo(len(top.selectable) - 1)
	case key.Matches(msg, m.keys.Copy):
		m.copyIdentifier()
	case key.Matches(msg, m.keys.Select):
		return m.selectCurrent(), false
	}
	return nil, false
}

func (m *bubbleModel) quit() tea.Cmd {
	var cmds []tea.Cmd
	if m.useAltScreen {
		cmds = append(cmds, tea.ExitAltScreen)
		m.useAltScreen = false
	}
	cmds = append(cmds, tea.Quit)
	return tea.Batch(cmds...)
}

func (m *bubbleModel) pageSize() int {
	return max(1, m.windowHeight/2)
}

const editingStatus = "Editing: enter to save · esc to cancel"

// selectCurrent acts on the highlighted item: editors take focus, controls
// fire, and items with a child table open it.
func (m *bubbleModel) selectCurrent() tea.Cmd {
	top := m.top()
	path, ok := top.current()
	if !ok {
		return nil
	}
	renderer, err := top.cellAt(path, m.queue)
	if err != nil {
		m.err = err
		return tea.Quit
	}

	switch r := renderer.(type) {
	case cell.Editor:
		m.editor = r
		m.setStatus(editingStatus)
		return r.Focus()
	case cell.Control:
		r.Activate()
	}

	nav, ok := top.adapter.DidSelect(path)
	if !ok {
		return nil
	}
	item := top.adapter.Item(path)
	label := strings.TrimSpace(nav.Push.Title())
	if label == "" {
		label = item.Title()
	}
	m.stack = append(m.stack, m.newScreen(nav.Push, label, top, item.Identifier))
	m.clearStatus()
	return nil
}

func (m *bubbleModel) pop() {
	if len(m.stack) <= 1 {
		return
	}
	m.top().releaseAll(m.queue)
	m.stack = m.stack[:len(m.stack)-1]
	m.editor = nil
	m.clearStatus()
}

func (m *bubbleModel) cycleTheme() {
	next := theme.Next(m.palette.Name)
	p, ok := theme.Get(next)
	if !ok {
		return
	}
	m.applyPalette(p)
	m.setStatus(fmt.Sprintf("Theme: %s (set color-theme: %s in config to persist)", p.DisplayName, next))
}

func (m *bubbleModel) copyIdentifier() {
	item, ok := m.top().currentItem()
	if !ok {
		return
	}
	if err := writeClipboardText(item.Identifier); err != nil {
		m.setStatus(fmt.Sprintf("Unable to copy: %v", err))
		return
	}
	m.setStatus(fmt.Sprintf("Copied %s", formatStatusValue(item.Identifier)))
}

func (m *bubbleModel) handleAction(a datasource.Action) {
	label := a.Item.Title()
	if label == "" {
		label = a.Item.Identifier
	}
	value := a.Event.Value.String()

	switch a.Event.Kind {
	case cell.ValueChanged, cell.Submitted:
		m.overrides[overrideKey{scope: m.top().scope, identifier: a.Item.Identifier}] = a.Event.Value
	}

	switch a.Event.Kind {
	case cell.ValueChanged:
		m.setStatus(fmt.Sprintf("%s: %s", label, formatStatusValue(value)))
	case cell.Tapped:
		m.setStatus(fmt.Sprintf("%s tapped", label))
	case cell.Submitted:
		m.setStatus(fmt.Sprintf("%s saved: %s", label, formatStatusValue(value)))
	}

	if m.logger != nil {
		m.logger.Info("cell action",
			slog.String("id", a.Item.Identifier),
			slog.String("path", a.Path.String()),
			slog.String("event", a.Event.Kind.String()),
			slog.String("value", value))
	}
	if m.onAction != nil {
		m.onAction(a)
	}
}

// applyReload swaps in a new root table and walks back down the open
// screens, matching items by identifier.
func (m *bubbleModel) applyReload(r Reload) {
	if r.Err != nil {
		m.setStatus(fmt.Sprintf("Reload failed: %v", r.Err))
		if m.logger != nil {
			m.logger.Warn("reload failed", slog.Any("error", r.Err))
		}
		return
	}

	type step struct{ origin, current string }
	trail := make([]step, len(m.stack))
	for i, s := range m.stack {
		item, _ := s.currentItem()
		trail[i] = step{origin: s.origin, current: item.Identifier}
		s.releaseAll(m.queue)
	}
	m.editor = nil
	// the reloaded document is the new source of every value
	clear(m.overrides)

	root := m.newScreen(m.newAdapter(r.Table), m.labelForRoot(r.Table), nil, "")
	root.focus(trail[0].current)
	m.stack = []*screen{root}

	for _, st := range trail[1:] {
		parent := m.top()
		if !parent.focus(st.origin) {
			break
		}
		path, _ := parent.current()
		nav, ok := parent.adapter.DidSelect(path)
		if !ok {
			break
		}
		label := strings.TrimSpace(nav.Push.Title())
		if label == "" {
			label = parent.adapter.Item(path).Title()
		}
		child := m.newScreen(nav.Push, label, parent, st.origin)
		child.focus(st.current)
		m.stack = append(m.stack, child)
	}

	m.setStatus(fmt.Sprintf("Reloaded %s", formatStatusValue(r.Table.Title)))
	if m.logger != nil {
		m.logger.Debug("model reloaded",
			slog.String("title", r.Table.Title),
			slog.Int("depth", len(m.stack)-1))
	}
}

func (m *bubbleModel) refresh() error {
	width := m.windowWidth
	if width <= 0 {
		width = 80
	}
	inner := max(1, width-m.listStyle.GetHorizontalFrameSize())

	titleLine := ""
	if title := strings.TrimSpace(m.top().adapter.Title()); title != "" {
		titleLine = truncateLine(m.styles.heading.Render(title), inner)
	}

	status := m.renderStatusArea(width)
	height := m.windowHeight - lipgloss.Height(status) - m.listStyle.GetVerticalFrameSize()
	if titleLine != "" {
		height -= lipgloss.Height(titleLine) + 1
	}
	height = max(height, 1)

	body, err := m.top().render(m.queue, inner, height, m.styles, m.logger)
	if err != nil {
		return err
	}
	if titleLine != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, titleLine, "", body)
	}
	m.body = body
	return nil
}

func (m *bubbleModel) View() string {
	width := m.windowWidth
	if width <= 0 {
		width = 80
	}
	box := m.listStyle.Width(max(1, width-m.listStyle.GetHorizontalBorderSize())).Render(m.body)
	return lipgloss.JoinVertical(lipgloss.Left, box, m.renderStatusArea(lipgloss.Width(box)))
}

func (m *bubbleModel) renderBreadcrumb() string {
	homeStyle := m.palette.ForegroundStyle(theme.ColorPrimary)
	baseStyle := m.palette.ForegroundStyle(theme.ColorTextSecondary)
	activeStyle := m.palette.ForegroundStyle(theme.ColorInfo)

	var builder strings.Builder
	builder.WriteString(homeStyle.Render(m.stack[0].label))
	for i := 1; i < len(m.stack); i++ {
		segment := strings.TrimSpace(m.stack[i].label)
		if segment == "" {
			continue
		}
		builder.WriteString(baseStyle.Render(" > "))
		style := baseStyle
		if i == len(m.stack)-1 {
			style = activeStyle
		}
		builder.WriteString(style.Render(segment))
	}
	return builder.String()
}

func (m *bubbleModel) renderStatusArea(width int) string {
	if width <= 0 {
		width = 80
	}
	innerWidth := max(1, width-m.statusStyle.GetHorizontalFrameSize())

	var content string
	if m.showHelp {
		content = m.renderHelpContent(innerWidth)
	} else {
		content = strings.Join(m.buildStatusRows(innerWidth), "\n")
	}
	return m.statusStyle.Width(max(1, width-m.statusStyle.GetHorizontalBorderSize())).Render(content)
}

func (m *bubbleModel) buildStatusRows(innerWidth int) []string {
	hint := ""
	if !m.showHelp {
		hint = lipgloss.NewStyle().Faint(true).Render("Press ? for help")
	}
	rows := []string{renderStatusRow(m.renderBreadcrumb(), hint, innerWidth)}

	profile := ""
	if m.profileName != "" {
		profile = m.palette.ForegroundStyle(theme.ColorTextSecondary).Render("Profile: " + m.profileName)
	}

	faint := lipgloss.NewStyle().Faint(true)
	switch {
	case m.searchActive:
		rows = append(rows, renderStatusRow(m.renderSearchPrompt(), profile, innerWidth))
	case strings.TrimSpace(m.statusMessage) != "":
		rows = append(rows, renderStatusRow(faint.Render(m.statusMessage), profile, innerWidth))
	case strings.TrimSpace(m.footer) != "":
		rows = append(rows, renderStatusRow(faint.Render(m.footer), profile, innerWidth))
	case profile != "":
		rows = append(rows, renderStatusRow("", profile, innerWidth))
	}
	return rows
}

func (m *bubbleModel) renderHelpContent(innerWidth int) string {
	helpStyle := lipgloss.NewStyle().Faint(true)
	lines := []string{padStatusLine(helpStyle.Render(fmt.Sprintf("%-16s: %s", "/<text>", "jump to matching item")), innerWidth)}
	for _, b := range m.keys.helpBindings() {
		h := b.Help()
		lines = append(lines, padStatusLine(helpStyle.Render(fmt.Sprintf("%-16s: %s", h.Key, h.Desc)), innerWidth))
	}
	return strings.Join(lines, "\n")
}

func renderStatusRow(left, right string, width int) string {
	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	if width < 1 {
		width = max(1, leftWidth+rightWidth)
	}

	switch {
	case rightWidth == 0 && leftWidth == 0:
		return strings.Repeat(" ", width)
	case rightWidth == 0:
		return padStatusLine(left, width)
	case leftWidth == 0:
		if rightWidth >= width {
			return right
		}
		return strings.Repeat(" ", width-rightWidth) + right
	default:
		gap := max(1, width-leftWidth-rightWidth)
		return left + strings.Repeat(" ", gap) + right
	}
}

func padStatusLine(value string, width int) string {
	lineWidth := lipgloss.Width(value)
	if width < 1 || lineWidth >= width {
		return value
	}
	return value + strings.Repeat(" ", width-lineWidth)
}

func (m *bubbleModel) setStatus(msg string) {
	trimmed := strings.TrimSpace(msg)
	if trimmed == "" {
		m.clearStatus()
		return
	}
	if m.searchActive {
		m.exitSearch(true)
	}
	m.statusMessage = trimmed
}

func (m *bubbleModel) clearStatus() {
	m.statusMessage = ""
}

func formatStatusValue(value string) string {
	clean := strings.Join(strings.Fields(value), " ")
	if clean == "" {
		return "(empty)"
	}
	return truncateLine(clean, 60)
}
