package model

import "github.com/kong/tablemodel/internal/mapping"

// Data is the general purpose ItemData, used both for trees written in code and
// for trees decoded from documents.
type Data struct {
	title  *string
	detail *string
	image  *string
	child  *Table
	custom mapping.Object
}

type DataOption func(*Data)

func WithTitle(title string) DataOption {
	return func(d *Data) { d.title = &title }
}

func WithDetail(detail string) DataOption {
	return func(d *Data) { d.detail = &detail }
}

func WithImage(ref string) DataOption {
	return func(d *Data) { d.image = &ref }
}

// WithChild attaches a drill-down table. The table is copied so the data owns it.
func WithChild(child Table) DataOption {
	return func(d *Data) { d.child = &child }
}

func WithCustom(custom mapping.Object) DataOption {
	return func(d *Data) { d.custom = custom }
}

func NewData(opts ...DataOption) Data {
	d := Data{}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func (d Data) Title() (string, bool)  { return deref(d.title) }
func (d Data) Detail() (string, bool) { return deref(d.detail) }
func (d Data) Image() (string, bool)  { return deref(d.image) }
func (d Data) Child() *Table          { return d.child }
func (d Data) Custom() mapping.Object { return d.custom }

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}
