// Package model holds the tree a list screen is rendered from: a Table groups
// Sections, a Section orders Items, and an Item optionally carries ItemData.
// ItemData may own a child Table, which is how drill-down screens are described.
//
// Trees are built once, either directly or with DecodeTable, and are replaced
// wholesale rather than mutated.
package model

import (
	"fmt"

	"github.com/kong/tablemodel/internal/mapping"
)

// Table is one screen of grouped rows.
type Table struct {
	Title    string
	Sections []Section
}

// Section is an ordered group of items with optional decoration text.
type Section struct {
	// ID is an informational name for the section. It is never required.
	ID     string
	Header *string
	Footer *string
	Items  []Item
}

// Item is one row: a stable identifier plus an optional payload.
type Item struct {
	Identifier string
	Data       ItemData
}

// IndexPath addresses a row within a Table.
type IndexPath struct {
	Section int
	Row     int
}

func (p IndexPath) String() string {
	return fmt.Sprintf("[%d, %d]", p.Section, p.Row)
}

func NewTable(title string, sections ...Section) Table {
	return Table{Title: title, Sections: sections}
}

func NewSection(id string, items ...Item) Section {
	return Section{ID: id, Items: items}
}

func NewItem(identifier string, data ItemData) Item {
	return Item{Identifier: identifier, Data: data}
}

// WithHeader returns a copy of s with the header text set.
func (s Section) WithHeader(header string) Section {
	s.Header = &header
	return s
}

// WithFooter returns a copy of s with the footer text set.
func (s Section) WithFooter(footer string) Section {
	s.Footer = &footer
	return s
}

// IsEmpty reports whether the table has no sections.
func (t Table) IsEmpty() bool {
	return len(t.Sections) == 0
}

// ItemAt returns the item at path. The second result is false when path is out
// of range.
func (t Table) ItemAt(path IndexPath) (Item, bool) {
	if path.Section < 0 || path.Section >= len(t.Sections) {
		return Item{}, false
	}
	items := t.Sections[path.Section].Items
	if path.Row < 0 || path.Row >= len(items) {
		return Item{}, false
	}
	return items[path.Row], true
}

// IndexOf finds the first row with the given identifier. Hosts use it to
// restore a selection after the tree has been rebuilt.
func (t Table) IndexOf(identifier string) (IndexPath, bool) {
	for s, section := range t.Sections {
		for r, item := range section.Items {
			if item.Identifier == identifier {
				return IndexPath{Section: s, Row: r}, true
			}
		}
	}
	return IndexPath{}, false
}

// DuplicateIdentifiers lists identifiers that occur more than once in t,
// in order of their second occurrence. Child tables are not inspected.
func (t Table) DuplicateIdentifiers() []string {
	seen := make(map[string]int)
	var dups []string
	for _, section := range t.Sections {
		for _, item := range section.Items {
			seen[item.Identifier]++
			if seen[item.Identifier] == 2 {
				dups = append(dups, item.Identifier)
			}
		}
	}
	return dups
}

// Child returns the item's drill-down table when it has one with at least one
// section, and nil otherwise.
func (i Item) Child() *Table {
	if i.Data == nil {
		return nil
	}
	child := i.Data.Child()
	if child == nil || child.IsEmpty() {
		return nil
	}
	return child
}

// Navigable reports whether selecting the item drills into a child table.
func (i Item) Navigable() bool {
	return i.Child() != nil
}

// Title returns the item's title, or an empty string when it has none.
func (i Item) Title() string {
	if i.Data == nil {
		return ""
	}
	title, _ := i.Data.Title()
	return title
}

// Stats summarizes the size of a tree, child tables included.
type Stats struct {
	Tables   int
	Sections int
	Items    int
	Depth    int
}

// Measure walks t and every reachable child table.
func Measure(t Table) Stats {
	stats := Stats{}
	measure(t, 1, &stats)
	return stats
}

func measure(t Table, depth int, stats *Stats) {
	stats.Tables++
	stats.Sections += len(t.Sections)
	stats.Depth = max(stats.Depth, depth)
	for _, section := range t.Sections {
		stats.Items += len(section.Items)
		for _, item := range section.Items {
			if item.Data == nil {
				continue
			}
			if child := item.Data.Child(); child != nil {
				measure(*child, depth+1, stats)
			}
		}
	}
}

// ItemData is the payload of a row. Every field is optional; consumers must
// handle absence of any of them.
type ItemData interface {
	Title() (string, bool)
	Detail() (string, bool)
	// Image is a reference the image loader resolves, such as an icon name
	// or a URL.
	Image() (string, bool)
	Child() *Table
	Custom() mapping.Object
}

// NoData implements ItemData with every field absent. Domain types embed it and
// override only the fields they have.
type NoData struct{}

func (NoData) Title() (string, bool)  { return "", false }
func (NoData) Detail() (string, bool) { return "", false }
func (NoData) Image() (string, bool)  { return "", false }
func (NoData) Child() *Table          { return nil }
func (NoData) Custom() mapping.Object { return nil }

var _ ItemData = NoData{}
var _ ItemData = Data{}
