package cell

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"reflect"
	"text/template"

	"github.com/kong/tablemodel/internal/image"
	"github.com/kong/tablemodel/internal/log"
)

// ConfigurationError reports a kind that cannot produce a valid renderer. It
// is a wiring bug in the host and rendering should stop.
type ConfigurationError struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("cell kind %s: %s", e.Kind, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Queue creates renderers for kinds and recycles them per reuse identifier.
// It is not safe for concurrent use.
type Queue struct {
	templates fs.FS
	loader    image.Loader
	logger    *slog.Logger

	idle    map[string][]Renderer
	created map[string]int
	parsed  map[string]*template.Template
}

type QueueOption func(*Queue)

// WithTemplates sets the file system template kinds are loaded from.
func WithTemplates(src fs.FS) QueueOption {
	return func(q *Queue) { q.templates = src }
}

// WithImageLoader sets the loader handed to renderers that display images.
func WithImageLoader(loader image.Loader) QueueOption {
	return func(q *Queue) { q.loader = loader }
}

func WithLogger(logger *slog.Logger) QueueOption {
	return func(q *Queue) { q.logger = logger }
}

func NewQueue(opts ...QueueOption) *Queue {
	q := &Queue{
		idle:    map[string][]Renderer{},
		created: map[string]int{},
		parsed:  map[string]*template.Template{},
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Dequeue returns an idle renderer for kind, or creates and customizes a new
// one. It fails with *ConfigurationError when the kind cannot produce a
// renderer of the right type.
func (q *Queue) Dequeue(kind Kind) (Renderer, error) {
	id := kind.ReuseIdentifier()
	if idle := q.idle[id]; len(idle) > 0 {
		r := idle[len(idle)-1]
		q.idle[id] = idle[:len(idle)-1]
		return r, nil
	}

	r, err := q.instantiate(kind)
	if err != nil {
		return nil, err
	}
	if aware, ok := r.(ImageLoading); ok && q.loader != nil {
		aware.SetImageLoader(q.loader)
	}
	r.Customize()
	q.created[id]++
	q.trace("created cell renderer",
		slog.String("reuse_id", id),
		slog.String("type", reflect.TypeOf(r).String()),
		slog.Int("instances", q.created[id]))
	return r, nil
}

// Enqueue returns r to the idle pool of kind. Editors lose focus and the
// action handler is cleared.
func (q *Queue) Enqueue(kind Kind, r Renderer) {
	if r == nil {
		return
	}
	if editor, ok := r.(Editor); ok {
		editor.Blur()
	}
	r.OnAction(nil)
	id := kind.ReuseIdentifier()
	q.idle[id] = append(q.idle[id], r)
}

// Created reports how many renderers were created for kind.
func (q *Queue) Created(kind Kind) int {
	return q.created[kind.ReuseIdentifier()]
}

// Idle reports how many renderers of kind wait for reuse.
func (q *Queue) Idle(kind Kind) int {
	return len(q.idle[kind.ReuseIdentifier()])
}

func (q *Queue) instantiate(kind Kind) (Renderer, error) {
	switch kind.Tag() {
	case TagPlain:
		return NewBasic(), nil
	case TagSubtitle:
		return NewSubtitle(), nil
	case TagLeftDetail:
		return NewLeftDetail(), nil
	case TagRightDetail:
		return NewRightDetail(), nil
	case TagButton:
		return NewButton(), nil
	case TagToggle:
		return NewToggle(), nil
	case TagTextInput:
		return NewTextField(), nil
	case TagClass:
		return instantiateClass(kind)
	case TagTemplate:
		return q.instantiateTemplate(kind)
	default:
		return nil, &ConfigurationError{Kind: kind, Reason: "unknown kind tag"}
	}
}

func instantiateClass(kind Kind) (Renderer, error) {
	class := kind.Class()
	if class.factory == nil || class.declared == nil {
		return nil, &ConfigurationError{Kind: kind, Reason: "class has no factory"}
	}
	if class.declared.Kind() == reflect.Interface {
		return nil, &ConfigurationError{
			Kind:   kind,
			Reason: fmt.Sprintf("class must declare a concrete type, not %s", class.declared),
		}
	}
	r := class.factory()
	if isNil(r) {
		return nil, &ConfigurationError{Kind: kind, Reason: "class factory returned nil"}
	}
	if actual := reflect.TypeOf(r); actual != class.declared {
		return nil, &ConfigurationError{
			Kind:   kind,
			Reason: fmt.Sprintf("class factory returned %s, declared %s", actual, class.declared),
		}
	}
	return r, nil
}

func (q *Queue) instantiateTemplate(kind Kind) (Renderer, error) {
	ref := kind.TemplateRef()
	tmpl, ok := q.parsed[ref]
	if !ok {
		var err error
		tmpl, err = loadTemplate(q.templates, ref)
		if err != nil {
			return nil, &ConfigurationError{Kind: kind, Reason: "template cannot be used", Err: err}
		}
		q.parsed[ref] = tmpl
	}
	return newTemplateCell(ref, tmpl), nil
}

func isNil(r Renderer) bool {
	if r == nil {
		return true
	}
	v := reflect.ValueOf(r)
	switch v.Kind() { //nolint:exhaustive
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func (q *Queue) trace(msg string, attrs ...slog.Attr) {
	if q.logger == nil {
		return
	}
	q.logger.LogAttrs(context.Background(), log.LevelTrace, msg, attrs...)
}
