package cell

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/kong/tablemodel/internal/mapping"
	"github.com/kong/tablemodel/internal/model"
)

// Custom payload keys read by the interactive renderers.
const (
	CustomOn          = "on"
	CustomValue       = "value"
	CustomPlaceholder = "placeholder"
)

// Button shows the item title as a tappable control.
type Button struct {
	Basic
}

func NewButton() *Button {
	return &Button{}
}

func (b *Button) Customize() {
	b.style.CenteredTitle = true
	b.style.EmphasizeTitle = true
}

func (b *Button) Content() Content {
	c := b.Basic.Content()
	c.Control = ControlButton
	c.Accessory = AccessoryNone
	return c
}

func (b *Button) Activate() {
	b.Emit(Event{Kind: Tapped, Sender: b, Value: mapping.Null()})
}

// Toggle shows the item title next to a switch. The initial state comes from
// the boolean custom field "on".
type Toggle struct {
	Basic
	on bool
}

func NewToggle() *Toggle {
	return &Toggle{}
}

func (t *Toggle) Customize() {}

func (t *Toggle) Update(item model.Item) {
	t.Basic.Update(item)
	t.on = false
	if item.Data != nil {
		if on, ok := item.Data.Custom().GetBool(CustomOn); ok {
			t.on = on
		}
	}
}

func (t *Toggle) Content() Content {
	c := t.Basic.Content()
	c.Control = ControlSwitch
	c.Accessory = AccessoryNone
	c.On = t.on
	return c
}

// On reports the switch state.
func (t *Toggle) On() bool { return t.on }

// SetOn sets the switch state without emitting an event.
func (t *Toggle) SetOn(on bool) { t.on = on }

func (t *Toggle) Activate() {
	t.on = !t.on
	t.Emit(Event{Kind: ValueChanged, Sender: t, Value: mapping.Bool(t.on)})
}

// TextField shows an editable text field. The initial text comes from the
// custom field "value" and the placeholder from "placeholder", falling back to
// the item title.
type TextField struct {
	Basic
	input textinput.Model
}

func NewTextField() *TextField {
	return &TextField{input: textinput.New()}
}

func (t *TextField) Customize() {
	t.input.Prompt = ""
	t.input.CharLimit = 256
}

func (t *TextField) Update(item model.Item) {
	t.Basic.Update(item)
	t.input.Blur()
	t.input.Reset()
	t.input.Placeholder = t.text
	if item.Data == nil {
		return
	}
	custom := item.Data.Custom()
	if value, ok := custom.GetString(CustomValue); ok {
		t.input.SetValue(value)
	}
	if placeholder, ok := custom.GetString(CustomPlaceholder); ok {
		t.input.Placeholder = placeholder
	}
}

func (t *TextField) Content() Content {
	c := t.Basic.Content()
	c.Control = ControlTextField
	c.Accessory = AccessoryNone
	c.Value = t.input.Value()
	c.Input = t.input.View()
	c.Focused = t.input.Focused()
	return c
}

func (t *TextField) Focus() tea.Cmd {
	return t.input.Focus()
}

func (t *TextField) Blur() {
	t.input.Blur()
}

func (t *TextField) Focused() bool {
	return t.input.Focused()
}

// HandleMsg feeds a message to the focused field. Enter submits the text and
// releases focus; escape releases focus without submitting.
func (t *TextField) HandleMsg(msg tea.Msg) tea.Cmd {
	if !t.input.Focused() {
		return nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type { //nolint:exhaustive
		case tea.KeyEnter:
			t.input.Blur()
			t.Emit(Event{Kind: Submitted, Sender: t, Value: mapping.String(t.input.Value())})
			return nil
		case tea.KeyEsc:
			t.input.Blur()
			return nil
		}
	}
	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	return cmd
}

// SetValue replaces the field text.
func (t *TextField) SetValue(value string) {
	t.input.SetValue(value)
}

var (
	_ Renderer = (*Basic)(nil)
	_ Renderer = (*Button)(nil)
	_ Control  = (*Button)(nil)
	_ Renderer = (*Toggle)(nil)
	_ Control  = (*Toggle)(nil)
	_ Renderer = (*TextField)(nil)
	_ Editor   = (*TextField)(nil)
)
