package cell

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/kong/tablemodel/internal/util"
)

// Tag identifies the variant of a Kind.
type Tag int

const (
	TagPlain Tag = iota
	TagSubtitle
	TagLeftDetail
	TagRightDetail
	TagButton
	TagToggle
	TagTextInput
	TagClass
	TagTemplate
)

var tagNames = map[Tag]string{
	TagPlain:       "plain",
	TagSubtitle:    "subtitle",
	TagLeftDetail:  "left-detail",
	TagRightDetail: "right-detail",
	TagButton:      "button",
	TagToggle:      "toggle",
	TagTextInput:   "text-input",
	TagClass:       "class",
	TagTemplate:    "template",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// Kind selects the renderer that displays an item. The zero value is Plain.
type Kind struct {
	tag   Tag
	class Class
	ref   string
}

var (
	Plain       = Kind{tag: TagPlain}
	Subtitle    = Kind{tag: TagSubtitle}
	LeftDetail  = Kind{tag: TagLeftDetail}
	RightDetail = Kind{tag: TagRightDetail}
	ButtonKind  = Kind{tag: TagButton}
	ToggleKind  = Kind{tag: TagToggle}
	TextInput   = Kind{tag: TagTextInput}
)

// CustomClass selects a renderer created by the class factory.
func CustomClass(c Class) Kind {
	return Kind{tag: TagClass, class: c}
}

// Template selects a renderer whose layout comes from the named template.
func Template(ref string) Kind {
	return Kind{tag: TagTemplate, ref: ref}
}

func (k Kind) Tag() Tag { return k.tag }

// Class returns the class of a TagClass kind.
func (k Kind) Class() Class { return k.class }

// TemplateRef returns the template reference of a TagTemplate kind.
func (k Kind) TemplateRef() string { return k.ref }

// ReuseIdentifier is the key instances of this kind are recycled under. Two
// kinds with the same identifier always produce renderers of the same type.
func (k Kind) ReuseIdentifier() string {
	switch k.tag {
	case TagClass:
		return "class:" + k.class.identifier()
	case TagTemplate:
		return "template:" + k.ref
	default:
		return k.tag.String()
	}
}

func (k Kind) String() string {
	switch k.tag {
	case TagClass:
		return "class:" + k.class.Name()
	case TagTemplate:
		return "template:" + k.ref
	default:
		return k.tag.String()
	}
}

// Class describes a custom renderer type and how to create it. Each call to
// NewClass or ClassOf declares a distinct class with its own reuse pool, even
// when the name and type repeat; copies of a Class share it.
type Class struct {
	name     string
	declared reflect.Type
	factory  func() Renderer
	seq      uint64
}

var classSeq atomic.Uint64

// NewClass declares a custom renderer class. Every instance the queue hands
// out for it is of type R.
func NewClass[R Renderer](name string, factory func() R) Class {
	return Class{
		name:     name,
		declared: reflect.TypeFor[R](),
		factory: func() Renderer {
			if factory == nil {
				return nil
			}
			return factory()
		},
		seq: classSeq.Add(1),
	}
}

// ClassOf declares a class from an untyped factory. The queue verifies that
// the factory produces instances of exactly the declared type.
func ClassOf(name string, declared reflect.Type, factory func() Renderer) Class {
	return Class{name: name, declared: declared, factory: factory, seq: classSeq.Add(1)}
}

func (c Class) Name() string { return c.name }

// Type is the declared renderer type.
func (c Class) Type() reflect.Type { return c.declared }

func (c Class) identifier() string {
	id := util.GenerateSlug(c.name)
	if c.declared != nil {
		id += "/" + c.declared.String()
	}
	return fmt.Sprintf("%s#%d", id, c.seq)
}

var (
	classesMu sync.RWMutex
	classes   = map[string]Class{}
)

// RegisterClass makes c selectable by name through ParseKind. Registering a
// second class under the same name replaces the first.
func RegisterClass(c Class) {
	classesMu.Lock()
	defer classesMu.Unlock()
	classes[util.GenerateSlug(c.name)] = c
}

// LookupClass returns the registered class with the given name.
func LookupClass(name string) (Class, bool) {
	classesMu.RLock()
	defer classesMu.RUnlock()
	c, ok := classes[util.GenerateSlug(name)]
	return c, ok
}

// RegisteredClasses lists the names of all registered classes.
func RegisteredClasses() []string {
	classesMu.RLock()
	defer classesMu.RUnlock()
	names := make([]string, 0, len(classes))
	for _, c := range classes {
		names = append(names, c.name)
	}
	sort.Strings(names)
	return names
}

// ParseKind reads a kind from its configuration name: one of the built-in
// names, "class:<registered name>" or "template:<reference>". Built-in names
// are matched loosely, so "leftDetail" and "left_detail" both work.
func ParseKind(name string) (Kind, error) {
	name = strings.TrimSpace(name)
	if ref, ok := strings.CutPrefix(name, "template:"); ok {
		if strings.TrimSpace(ref) == "" {
			return Kind{}, fmt.Errorf("template kind %q has no reference", name)
		}
		return Template(ref), nil
	}
	if className, ok := strings.CutPrefix(name, "class:"); ok {
		c, found := LookupClass(className)
		if !found {
			return Kind{}, fmt.Errorf("unknown cell class %q (registered: %s)",
				className, strings.Join(RegisteredClasses(), ", "))
		}
		return CustomClass(c), nil
	}

	switch util.GenerateSlug(name) {
	case "", "plain", "default", "basic":
		return Plain, nil
	case "subtitle":
		return Subtitle, nil
	case "left-detail", "value2":
		return LeftDetail, nil
	case "right-detail", "value1":
		return RightDetail, nil
	case "button":
		return ButtonKind, nil
	case "toggle", "switch":
		return ToggleKind, nil
	case "text-input", "text-field", "textfield":
		return TextInput, nil
	}
	return Kind{}, fmt.Errorf("unknown cell kind %q", name)
}

// KindNames lists the built-in kind names accepted by ParseKind.
func KindNames() []string {
	return []string{
		TagPlain.String(), TagSubtitle.String(), TagLeftDetail.String(), TagRightDetail.String(),
		TagButton.String(), TagToggle.String(), TagTextInput.String(),
		"class:<name>", "template:<ref>",
	}
}
