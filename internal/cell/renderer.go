// Package cell binds model items to renderers. A Kind selects the renderer
// variant, a Queue creates and recycles renderer instances, and every renderer
// reports what it displays as a Content snapshot that a host can draw.
package cell

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/kong/tablemodel/internal/image"
	"github.com/kong/tablemodel/internal/mapping"
	"github.com/kong/tablemodel/internal/model"
)

// Renderer is the capability set every cell variant provides.
type Renderer interface {
	// Customize performs one-time setup. Calling it again has no further effect.
	Customize()
	// Update displays item, replacing everything a previous Update displayed.
	Update(item model.Item)
	// OnAction sets the handler that receives the renderer's events. A nil
	// handler drops events.
	OnAction(fn func(Event))
	Content() Content
}

// Control is implemented by renderers with a single activatable control, such
// as a button or a switch.
type Control interface {
	Activate()
}

// Editor is implemented by renderers that take text input while focused.
type Editor interface {
	Focus() tea.Cmd
	Blur()
	Focused() bool
	HandleMsg(msg tea.Msg) tea.Cmd
}

// ImageLoading is implemented by renderers that display item images. The
// queue hands every new instance its loader.
type ImageLoading interface {
	SetImageLoader(loader image.Loader)
}

type EventKind int

const (
	ValueChanged EventKind = iota + 1
	Tapped
	Submitted
)

func (k EventKind) String() string {
	switch k {
	case ValueChanged:
		return "value-changed"
	case Tapped:
		return "tapped"
	case Submitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Event is raised by a renderer when one of its controls fires.
type Event struct {
	Kind   EventKind
	Sender Renderer
	Value  mapping.Variant
}

type Layout int

const (
	// LayoutDefault shows the title only.
	LayoutDefault Layout = iota
	// LayoutSubtitle shows the detail below the title.
	LayoutSubtitle
	// LayoutLeftDetail shows a short detail label before the title.
	LayoutLeftDetail
	// LayoutRightDetail shows the detail right aligned after the title.
	LayoutRightDetail
	// LayoutCustom shows Content.Lines.
	LayoutCustom
)

type Accessory int

const (
	AccessoryNone Accessory = iota
	AccessoryDisclosure
)

type ControlKind int

const (
	ControlNone ControlKind = iota
	ControlButton
	ControlSwitch
	ControlTextField
)

// Style holds the one-time visual setup a renderer applies in Customize.
type Style struct {
	EmphasizeTitle bool
	MutedDetail    bool
	RoundedImage   bool
	CenteredTitle  bool
}

// Content is a snapshot of what a renderer displays.
type Content struct {
	Layout    Layout
	Style     Style
	Text      string
	Detail    string
	ImageRef  string
	Image     *image.Image
	Accessory Accessory
	Control   ControlKind
	// On is the switch state of a ControlSwitch.
	On bool
	// Value is the text of a ControlTextField and Input its rendered field.
	Value   string
	Input   string
	Focused bool
	// Lines are the pre-rendered lines of a LayoutCustom renderer.
	Lines []string
}
