package cell

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/kong/tablemodel/internal/model"
)

// TemplateCell lays out an item with a text template. The template is executed
// against a TemplateData value and every output line becomes one display line.
type TemplateCell struct {
	Basic
	ref   string
	tmpl  *template.Template
	lines []string
}

// TemplateData is the value a cell template is executed against.
type TemplateData struct {
	Identifier string
	Title      string
	Detail     string
	Image      string
	Navigable  bool
	Custom     map[string]any
}

func newTemplateCell(ref string, tmpl *template.Template) *TemplateCell {
	return &TemplateCell{ref: ref, tmpl: tmpl}
}

// Ref is the reference the template was loaded from.
func (t *TemplateCell) Ref() string { return t.ref }

func (t *TemplateCell) Customize() {
	t.layout = LayoutCustom
}

func (t *TemplateCell) Update(item model.Item) {
	t.Basic.Update(item)
	t.lines = nil

	data := TemplateData{
		Identifier: item.Identifier,
		Title:      t.text,
		Detail:     t.detail,
		Image:      t.imageRef,
		Navigable:  item.Navigable(),
	}
	if item.Data != nil {
		data.Custom = item.Data.Custom().Interface()
	}

	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		// a template that cannot render this item falls back to the plain layout
		return
	}
	out := strings.TrimRight(buf.String(), "\n")
	if out == "" {
		return
	}
	t.lines = strings.Split(out, "\n")
}

func (t *TemplateCell) Content() Content {
	c := t.Basic.Content()
	if t.lines == nil {
		c.Layout = LayoutDefault
		return c
	}
	c.Lines = append([]string(nil), t.lines...)
	return c
}

// loadTemplate reads and parses the template stored at exactly ref.
func loadTemplate(src fs.FS, ref string) (*template.Template, error) {
	if src == nil {
		return nil, errors.New("no template source configured")
	}
	raw, err := fs.ReadFile(src, ref)
	if err != nil {
		return nil, fmt.Errorf("loading template: %w", err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return nil, errors.New("template is empty")
	}
	tmpl, err := template.New(ref).Funcs(sprig.TxtFuncMap()).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	return tmpl, nil
}
