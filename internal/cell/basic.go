package cell

import (
	"sync"

	"github.com/google/uuid"
	"github.com/kong/tablemodel/internal/image"
	"github.com/kong/tablemodel/internal/model"
)

// Basic is the plain renderer and the base of every other built-in. It shows
// the item's title, detail and image, and a disclosure accessory when the item
// drills into a non-empty child table.
type Basic struct {
	layout Layout
	style  Style
	action func(Event)
	loader image.Loader

	text      string
	detail    string
	imageRef  string
	accessory Accessory

	// the image arrives asynchronously; token identifies the bind it belongs to
	mu    sync.Mutex
	img   *image.Image
	token string
}

func NewBasic() *Basic {
	return &Basic{layout: LayoutDefault}
}

func NewSubtitle() *Basic {
	return &Basic{layout: LayoutSubtitle}
}

func NewLeftDetail() *Basic {
	return &Basic{layout: LayoutLeftDetail}
}

func NewRightDetail() *Basic {
	return &Basic{layout: LayoutRightDetail}
}

func (b *Basic) Customize() {
	if b.layout == LayoutSubtitle || b.layout == LayoutRightDetail {
		b.style.MutedDetail = true
	}
}

// SetLayout changes the layout. Custom renderers call it from Customize.
func (b *Basic) SetLayout(layout Layout) { b.layout = layout }

// SetStyle replaces the style. Custom renderers call it from Customize.
func (b *Basic) SetStyle(style Style) { b.style = style }

func (b *Basic) SetImageLoader(loader image.Loader) { b.loader = loader }

func (b *Basic) OnAction(fn func(Event)) { b.action = fn }

// Emit delivers e to the action handler, filling in the sender when unset.
func (b *Basic) Emit(e Event) {
	if b.action == nil {
		return
	}
	if e.Sender == nil {
		e.Sender = b
	}
	b.action(e)
}

func (b *Basic) Update(item model.Item) {
	b.text, b.detail, b.imageRef = "", "", ""
	b.accessory = AccessoryNone

	token := uuid.NewString()
	b.mu.Lock()
	b.img = nil
	b.token = token
	b.mu.Unlock()

	if item.Navigable() {
		b.accessory = AccessoryDisclosure
	}
	data := item.Data
	if data == nil {
		return
	}
	if title, ok := data.Title(); ok {
		b.text = title
	}
	if detail, ok := data.Detail(); ok {
		b.detail = detail
	}
	if ref, ok := data.Image(); ok {
		b.imageRef = ref
		if b.loader != nil {
			b.loader.Load(ref, &boundImage{cell: b, token: token})
		}
	}
}

func (b *Basic) Content() Content {
	b.mu.Lock()
	img := b.img
	b.mu.Unlock()

	return Content{
		Layout:    b.layout,
		Style:     b.style,
		Text:      b.text,
		Detail:    b.detail,
		ImageRef:  b.imageRef,
		Image:     img,
		Accessory: b.accessory,
	}
}

// boundImage delivers a loaded image to the bind that requested it. Results for
// an earlier bind of a recycled cell are dropped.
type boundImage struct {
	cell  *Basic
	token string
}

func (t *boundImage) Deliver(img image.Image) {
	t.cell.mu.Lock()
	defer t.cell.mu.Unlock()
	if t.cell.token != t.token {
		return
	}
	t.cell.img = &img
}
