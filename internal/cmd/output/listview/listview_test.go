package listview

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kong/tablemodel/internal/cell"
	"github.com/kong/tablemodel/internal/datasource"
	"github.com/kong/tablemodel/internal/image"
	"github.com/kong/tablemodel/internal/iostreams"
	"github.com/kong/tablemodel/internal/model"
	"github.com/kong/tablemodel/internal/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCmd(t *testing.T, m *bubbleModel, cmd tea.Cmd) *bubbleModel {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == nil {
			continue
		}
		msg := current()
		switch v := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, []tea.Cmd(v)...)
			continue
		case nil:
			continue
		}
		updated, next := m.Update(msg)
		bm, ok := updated.(*bubbleModel)
		require.True(t, ok)
		m = bm
		if next != nil {
			queue = append(queue, next)
		}
	}
	return m
}

func press(t *testing.T, m *bubbleModel, keys ...string) *bubbleModel {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, _ := m.Update(msg)
		m = updated.(*bubbleModel)
	}
	return m
}

func settingsTable() model.Table {
	network := model.NewTable("Wi-Fi",
		model.NewSection("networks",
			model.NewItem("home", model.NewData(model.WithTitle("Home"))),
			model.NewItem("office", model.NewData(model.WithTitle("Office"))),
		).WithHeader("Networks"),
	)
	return model.NewTable("settings",
		model.NewSection("user",
			model.NewItem("profile", model.NewData(
				model.WithTitle("Marko Tadic"),
				model.WithDetail("Apple ID, iCloud, iTunes & App Store"),
				model.WithImage("IconGray"),
			)),
		),
		model.NewSection("device",
			model.NewItem("airplane", model.NewData(model.WithTitle("Airplane Mode"), model.WithImage("IconOrange"))),
			model.NewItem("wifi", model.NewData(
				model.WithTitle("Wi-Fi"),
				model.WithDetail("Off"),
				model.WithImage("IconBlue"),
				model.WithChild(network),
			)),
		).WithHeader("Device").WithFooter("Changes apply immediately."),
	)
}

func newTestModel(t *testing.T, table model.Table, cfg config, width, height int) (*bubbleModel, *cell.Queue) {
	t.Helper()
	if cfg.selector == nil {
		cfg.selector = datasource.PlainSelector
	}
	q := cell.NewQueue(cell.WithImageLoader(syncLoader{resolver: image.IconResolver{}}))
	m := newBubbleModel(table, q, cfg, theme.Current(), width, height)
	require.NoError(t, m.refresh())
	return m, q
}

func TestRender_StaticOutput(t *testing.T) {
	streams, _, outBuf, _ := iostreams.NewTestIOStreams()

	err := Render(&streams, settingsTable(), WithInteractive(false))
	require.NoError(t, err)

	output := outBuf.String()
	for _, want := range []string{"settings", "DEVICE", "Airplane Mode", "Wi-Fi", "Off", "Changes apply immediately."} {
		assert.Contains(t, output, want)
	}
	assert.NotContains(t, output, selectedMarker)
}

func TestRender_StaticRecyclesRenderers(t *testing.T) {
	var items []model.Item
	for i := range 30 {
		items = append(items, model.NewItem(fmt.Sprintf("item-%d", i), model.NewData(model.WithTitle(fmt.Sprintf("Item %d", i)))))
	}
	table := model.NewTable("many", model.NewSection("all", items...))

	q := cell.NewQueue()
	cfg := config{selector: datasource.PlainSelector, resolver: image.IconResolver{}}
	s := newScreen(datasource.New(table, cfg.selector), table.Title)
	for i, r := range s.rows {
		_, err := s.renderRow(i, 40, q, newStyles(theme.Current()))
		require.NoError(t, err)
		s.release(r.path, q)
	}
	assert.Equal(t, 1, q.Created(cell.Plain))
	assert.Equal(t, 1, q.Idle(cell.Plain))
}

func TestRender_EmptyTable(t *testing.T) {
	streams, _, outBuf, _ := iostreams.NewTestIOStreams()
	require.NoError(t, Render(&streams, model.NewTable("empty"), WithInteractive(false)))
	assert.Contains(t, outBuf.String(), "No items.")
}

func TestRender_RequiresOutput(t *testing.T) {
	assert.Error(t, Render(nil, settingsTable()))
}

func TestWindowBindsOnlyVisibleRows(t *testing.T) {
	var items []model.Item
	for i := range 60 {
		items = append(items, model.NewItem(fmt.Sprintf("item-%d", i), model.NewData(model.WithTitle(fmt.Sprintf("Item %d", i)))))
	}
	table := model.NewTable("many", model.NewSection("all", items...))

	m, q := newTestModel(t, table, config{}, 60, 16)
	created := q.Created(cell.Plain)
	require.Positive(t, created)
	assert.Less(t, created, 16)
	assert.Len(t, m.top().bound, created)

	m = press(t, m, "G")
	item, ok := m.top().currentItem()
	require.True(t, ok)
	assert.Equal(t, "item-59", item.Identifier)
	assert.Contains(t, m.body, "Item 59")
	assert.LessOrEqual(t, q.Created(cell.Plain), created+1)
	assert.Len(t, m.top().bound, q.Created(cell.Plain)-q.Idle(cell.Plain))

	m = press(t, m, "g")
	assert.Contains(t, m.body, "Item 0")
	assert.LessOrEqual(t, q.Created(cell.Plain), created+1)
}

func TestNavigationPushAndPop(t *testing.T) {
	m, q := newTestModel(t, settingsTable(), config{}, 80, 30)

	m = press(t, m, "down", "down", "enter")
	require.Len(t, m.stack, 2)
	assert.Equal(t, "Wi-Fi", m.top().label)
	assert.Equal(t, "wifi", m.top().origin)
	assert.Contains(t, m.body, "Home")
	assert.Contains(t, m.renderBreadcrumb(), "settings")
	assert.Contains(t, m.renderBreadcrumb(), "Wi-Fi")

	idleBefore := q.Idle(cell.Plain)
	m = press(t, m, "backspace")
	require.Len(t, m.stack, 1)
	assert.Greater(t, q.Idle(cell.Plain), idleBefore)
	item, _ := m.top().currentItem()
	assert.Equal(t, "wifi", item.Identifier)
}

func TestSelectingLeafDoesNotNavigate(t *testing.T) {
	m, _ := newTestModel(t, settingsTable(), config{}, 80, 30)
	m = press(t, m, "enter")
	assert.Len(t, m.stack, 1)
}

func TestEscAtRootQuits(t *testing.T) {
	m, _ := newTestModel(t, settingsTable(), config{}, 80, 30)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.False(t, m.useAltScreen)
}

func TestToggleRaisesAction(t *testing.T) {
	var actions []datasource.Action
	selector := func(item model.Item, _ model.IndexPath, _ model.Table) cell.Kind {
		if item.Identifier == "airplane" {
			return cell.ToggleKind
		}
		return cell.Plain
	}
	m, _ := newTestModel(t, settingsTable(), config{
		selector: selector,
		onAction: func(a datasource.Action) { actions = append(actions, a) },
	}, 80, 30)

	m = press(t, m, "down", "enter")
	require.Len(t, actions, 1)
	assert.Equal(t, cell.ValueChanged, actions[0].Event.Kind)
	assert.Equal(t, "airplane", actions[0].Item.Identifier)
	assert.Equal(t, "Airplane Mode: true", m.statusMessage)
	assert.Contains(t, m.body, "on")
	assert.Len(t, m.stack, 1)
}

func longControlsTable() model.Table {
	items := []model.Item{
		model.NewItem("airplane", model.NewData(model.WithTitle("Airplane Mode"))),
		model.NewItem("name", model.NewData(model.WithTitle("Name"))),
	}
	for i := range 40 {
		items = append(items, model.NewItem(fmt.Sprintf("item-%d", i), model.NewData(model.WithTitle(fmt.Sprintf("Item %d", i)))))
	}
	return model.NewTable("controls", model.NewSection("all", items...))
}

func boundRenderer(t *testing.T, m *bubbleModel, identifier string) cell.Renderer {
	t.Helper()
	path, ok := m.top().adapter.Table().IndexOf(identifier)
	require.True(t, ok)
	b, ok := m.top().bound[path]
	require.True(t, ok, "%s is not bound", identifier)
	return b.renderer
}

func TestControlValuesSurviveRecycling(t *testing.T) {
	selector := func(item model.Item, _ model.IndexPath, _ model.Table) cell.Kind {
		switch item.Identifier {
		case "airplane":
			return cell.ToggleKind
		case "name":
			return cell.TextInput
		}
		return cell.Plain
	}
	m, q := newTestModel(t, longControlsTable(), config{selector: selector}, 60, 14)

	m = press(t, m, "enter")
	require.True(t, boundRenderer(t, m, "airplane").(*cell.Toggle).On())
	m = press(t, m, "down", "enter", "k", "o", "n", "g", "enter")
	assert.Equal(t, "kong", boundRenderer(t, m, "name").Content().Value)

	m = press(t, m, "G")
	path, _ := m.top().adapter.Table().IndexOf("airplane")
	_, stillBound := m.top().bound[path]
	require.False(t, stillBound)
	require.Equal(t, 1, q.Idle(cell.ToggleKind))

	m = press(t, m, "g")
	assert.True(t, boundRenderer(t, m, "airplane").(*cell.Toggle).On())
	assert.Equal(t, "kong", boundRenderer(t, m, "name").Content().Value)
}

func TestReloadDropsControlValues(t *testing.T) {
	selector := func(item model.Item, _ model.IndexPath, _ model.Table) cell.Kind {
		if item.Identifier == "airplane" {
			return cell.ToggleKind
		}
		return cell.Plain
	}
	m, _ := newTestModel(t, longControlsTable(), config{selector: selector}, 60, 14)
	m = press(t, m, "enter")
	require.Len(t, m.overrides, 1)

	updated, _ := m.Update(reloadMsg{Table: longControlsTable()})
	m = updated.(*bubbleModel)
	assert.Empty(t, m.overrides)
	assert.False(t, boundRenderer(t, m, "airplane").(*cell.Toggle).On())
}

func TestControlValuesAreScopedToTheirScreen(t *testing.T) {
	child := model.NewTable("Child", model.NewSection("", model.NewItem("airplane", model.NewData(model.WithTitle("Nested")))))
	table := model.NewTable("root", model.NewSection("",
		model.NewItem("airplane", model.NewData(model.WithTitle("Airplane Mode"))),
		model.NewItem("more", model.NewData(model.WithTitle("More"), model.WithChild(child))),
	))
	selector := func(item model.Item, _ model.IndexPath, _ model.Table) cell.Kind {
		if item.Identifier == "airplane" {
			return cell.ToggleKind
		}
		return cell.Plain
	}
	m, _ := newTestModel(t, table, config{selector: selector}, 80, 30)

	m = press(t, m, "enter", "down", "enter")
	require.Len(t, m.stack, 2)
	assert.False(t, boundRenderer(t, m, "airplane").(*cell.Toggle).On())

	m = press(t, m, "backspace")
	assert.True(t, boundRenderer(t, m, "airplane").(*cell.Toggle).On())
}

func TestTextInputEditing(t *testing.T) {
	var actions []datasource.Action
	selector := func(item model.Item, _ model.IndexPath, _ model.Table) cell.Kind {
		if item.Identifier == "profile" {
			return cell.TextInput
		}
		return cell.Plain
	}
	m, _ := newTestModel(t, settingsTable(), config{
		selector: selector,
		onAction: func(a datasource.Action) { actions = append(actions, a) },
	}, 80, 30)

	m = press(t, m, "enter")
	require.NotNil(t, m.editor)
	assert.Equal(t, editingStatus, m.statusMessage)

	// keys go to the field while it has focus
	m = press(t, m, "q", "t")
	assert.NotNil(t, m.editor)
	m = press(t, m, "enter")
	assert.Nil(t, m.editor)

	require.Len(t, actions, 1)
	assert.Equal(t, cell.Submitted, actions[0].Event.Kind)
	assert.Equal(t, "qt", actions[0].Event.Value.String())
	assert.Equal(t, "Marko Tadic saved: qt", m.statusMessage)
}

func TestReloadRestoresPosition(t *testing.T) {
	reloads := make(chan Reload, 1)
	m, _ := newTestModel(t, settingsTable(), config{reloads: reloads}, 80, 30)
	m = press(t, m, "down", "down", "enter", "down")
	require.Len(t, m.stack, 2)

	updated := settingsTable()
	updated.Sections = append([]model.Section{
		model.NewSection("new", model.NewItem("bluetooth", model.NewData(model.WithTitle("Bluetooth")))),
	}, updated.Sections...)
	reloads <- Reload{Table: updated}
	close(reloads)

	m = executeCmd(t, m, m.Init())
	require.Len(t, m.stack, 2)
	assert.Equal(t, "wifi", m.top().origin)
	item, ok := m.top().currentItem()
	require.True(t, ok)
	assert.Equal(t, "office", item.Identifier)

	parent, _ := m.stack[0].currentItem()
	assert.Equal(t, "wifi", parent.Identifier)
	assert.Equal(t, "Reloaded settings", m.statusMessage)
}

func TestReloadDropsScreensThatNoLongerExist(t *testing.T) {
	m, _ := newTestModel(t, settingsTable(), config{}, 80, 30)
	m = press(t, m, "down", "down", "enter")
	require.Len(t, m.stack, 2)

	updated := model.NewTable("settings", model.NewSection("device",
		model.NewItem("airplane", model.NewData(model.WithTitle("Airplane Mode"))),
	))
	updatedModel, _ := m.Update(reloadMsg{Table: updated})
	m = updatedModel.(*bubbleModel)
	assert.Len(t, m.stack, 1)
}

func TestReloadErrorKeepsTable(t *testing.T) {
	m, _ := newTestModel(t, settingsTable(), config{}, 80, 30)
	updated, _ := m.Update(reloadMsg{Err: errors.New("bad yaml")})
	m = updated.(*bubbleModel)
	assert.Equal(t, "Reload failed: bad yaml", m.statusMessage)
	assert.Contains(t, m.body, "Airplane Mode")
}

func TestThemeCycle(t *testing.T) {
	m, _ := newTestModel(t, settingsTable(), config{}, 80, 30)
	before := m.palette.Name
	m = press(t, m, "t")
	assert.Equal(t, theme.Next(before), m.palette.Name)
	assert.Contains(t, m.statusMessage, "Theme: ")
}

func TestCopyIdentifier(t *testing.T) {
	var copied string
	original := writeClipboardText
	writeClipboardText = func(value string) error {
		copied = value
		return nil
	}
	t.Cleanup(func() { writeClipboardText = original })

	m, _ := newTestModel(t, settingsTable(), config{}, 80, 30)
	m = press(t, m, "down", "y")
	assert.Equal(t, "airplane", copied)
	assert.Equal(t, "Copied airplane", m.statusMessage)
}

func TestSearchJumpsToMatch(t *testing.T) {
	m, _ := newTestModel(t, settingsTable(), config{}, 80, 30)
	m = press(t, m, "/", "w", "i")
	assert.True(t, m.searchActive)
	item, _ := m.top().currentItem()
	assert.Equal(t, "wifi", item.Identifier)

	m = press(t, m, "z", "z")
	assert.Contains(t, m.statusMessage, "No match for '/wizz'")

	m = press(t, m, "esc")
	assert.False(t, m.searchActive)
	assert.Empty(t, m.statusMessage)
	assert.Len(t, m.stack, 1)
}

func TestConfigurationErrorStopsRendering(t *testing.T) {
	selector := func(model.Item, model.IndexPath, model.Table) cell.Kind {
		return cell.Template("missing.tmpl")
	}
	q := cell.NewQueue()
	m := newBubbleModel(settingsTable(), q, config{selector: selector}, theme.Current(), 80, 30)

	var cfgErr *cell.ConfigurationError
	require.ErrorAs(t, m.refresh(), &cfgErr)

	streams, _, _, _ := iostreams.NewTestIOStreams()
	err := Render(&streams, settingsTable(), WithInteractive(false), WithSelector(selector))
	require.ErrorAs(t, err, &cfgErr)
}

func TestHelpToggle(t *testing.T) {
	m, _ := newTestModel(t, settingsTable(), config{profileName: "team"}, 80, 30)
	assert.Contains(t, m.View(), "Press ? for help")
	assert.Contains(t, m.View(), "Profile: team")

	m = press(t, m, "?")
	view := m.View()
	assert.Contains(t, view, "cycle color theme")
	assert.Contains(t, view, "jump to matching item")
}

func TestRenderContentLayouts(t *testing.T) {
	st := newStyles(theme.Current())

	subtitle := renderContent(cell.Content{Layout: cell.LayoutSubtitle, Text: "Repo", Detail: "A description"}, 40, false, st)
	assert.Equal(t, 2, lipgloss.Height(subtitle))

	right := renderContent(cell.Content{Layout: cell.LayoutRightDetail, Text: "Wi-Fi", Detail: "Off"}, 30, false, st)
	assert.Equal(t, 30, lipgloss.Width(right))
	assert.Contains(t, right, "Off")

	long := renderContent(cell.Content{Text: strings.Repeat("x", 100)}, 20, true, st)
	assert.LessOrEqual(t, lipgloss.Width(long), 20)
	assert.Contains(t, long, "…")

	custom := renderContent(cell.Content{Layout: cell.LayoutCustom, Lines: []string{"one", "two", "three"}}, 20, false, st)
	assert.Equal(t, 3, lipgloss.Height(custom))

	disclosure := renderContent(cell.Content{Text: "Wi-Fi", Accessory: cell.AccessoryDisclosure}, 20, false, st)
	assert.Contains(t, disclosure, disclosureGlyph)
}

func TestFindMatchIndex(t *testing.T) {
	labels := []string{"Airplane Mode", "Wi-Fi", "Bluetooth", "Mobile Data"}
	label := func(i int) string { return labels[i] }

	idx, ok := findMatchIndex("blue", 0, len(labels), label)
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	idx, ok = findMatchIndex("data", 0, len(labels), label)
	require.True(t, ok)
	assert.Equal(t, 3, idx)

	idx, ok = findMatchIndex("mbl", 0, len(labels), label)
	require.True(t, ok)
	assert.Equal(t, 3, idx)

	_, ok = findMatchIndex("zzz", 0, len(labels), label)
	assert.False(t, ok)
}
