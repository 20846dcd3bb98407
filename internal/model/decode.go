package model

import (
	"github.com/kong/tablemodel/internal/mapping"
)

type tableKey string

const (
	tableTitle    tableKey = "title"
	tableSections tableKey = "sections"
)

type sectionKey string

const (
	sectionID     sectionKey = "id"
	sectionHeader sectionKey = "header"
	sectionFooter sectionKey = "footer"
	sectionItems  sectionKey = "items"
)

type itemKey string

const (
	itemIdentifier itemKey = "id"
	itemData       itemKey = "data"
)

type dataKey string

const (
	dataTitle  dataKey = "title"
	dataDetail dataKey = "detail"
	dataImage  dataKey = "image"
	dataCustom dataKey = "custom"
	dataTable  dataKey = "table"
)

// Decode decodes the root of a parsed document into a Table.
func Decode(root any) (Table, error) {
	m, ok := root.(map[string]any)
	if !ok {
		if typed, isMap := root.(mapping.Map); isMap {
			m = typed
		} else {
			return Table{}, &mapping.TypeMismatchError{Expected: "object", Actual: describeRoot(root)}
		}
	}
	return DecodeTable(m)
}

// DecodeTable decodes a table. Both title and sections are required, and any
// structural failure below the table fails the whole decode.
func DecodeTable(m mapping.Map) (Table, error) {
	title, err := mapping.Value[string](m, tableTitle)
	if err != nil {
		return Table{}, err
	}
	sections, err := mapping.MappableArray(m, tableSections, DecodeSection)
	if err != nil {
		return Table{}, err
	}
	return Table{Title: title, Sections: sections}, nil
}

// DecodeSection decodes a section. Only items is required.
func DecodeSection(m mapping.Map) (Section, error) {
	items, err := mapping.MappableArray(m, sectionItems, DecodeItem)
	if err != nil {
		return Section{}, err
	}
	id, _ := mapping.Optional(mapping.Value[string](m, sectionID))
	return Section{
		ID:     id,
		Header: mapping.OptionalPtr(mapping.Value[string](m, sectionHeader)),
		Footer: mapping.OptionalPtr(mapping.Value[string](m, sectionFooter)),
		Items:  items,
	}, nil
}

// DecodeItem decodes an item. A malformed data node leaves the item without
// payload instead of failing it.
func DecodeItem(m mapping.Map) (Item, error) {
	id, err := mapping.Value[string](m, itemIdentifier)
	if err != nil {
		return Item{}, err
	}
	item := Item{Identifier: id}
	if data, ok := mapping.Optional(mapping.Mappable(m, itemData, DecodeData)); ok {
		item.Data = data
	}
	return item, nil
}

// DecodeData decodes an item payload. Every field is optional, so it never
// fails: a field that is missing or of the wrong shape is simply absent. This
// includes the child table, which is dropped when it does not decode.
func DecodeData(m mapping.Map) (Data, error) {
	d := Data{
		title:  mapping.OptionalPtr(mapping.Value[string](m, dataTitle)),
		detail: mapping.OptionalPtr(mapping.Value[string](m, dataDetail)),
		image:  mapping.OptionalPtr(mapping.Value[string](m, dataImage)),
		child:  mapping.OptionalPtr(mapping.Mappable(m, dataTable, DecodeTable)),
	}
	if custom, ok := mapping.Optional(mapping.ObjectValue(m, dataCustom)); ok {
		d.custom = custom
	}
	return d, nil
}

func describeRoot(root any) string {
	switch root.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "bool"
	default:
		return "scalar"
	}
}
