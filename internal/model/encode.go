package model

// Encode converts t into the untyped document shape DecodeTable reads. Absent
// optional fields are omitted, so Decode(Encode(t)) reproduces t.
func Encode(t Table) map[string]any {
	sections := make([]any, 0, len(t.Sections))
	for _, s := range t.Sections {
		sections = append(sections, encodeSection(s))
	}
	return map[string]any{
		string(tableTitle):    t.Title,
		string(tableSections): sections,
	}
}

func encodeSection(s Section) map[string]any {
	items := make([]any, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, encodeItem(item))
	}
	out := map[string]any{string(sectionItems): items}
	if s.ID != "" {
		out[string(sectionID)] = s.ID
	}
	if s.Header != nil {
		out[string(sectionHeader)] = *s.Header
	}
	if s.Footer != nil {
		out[string(sectionFooter)] = *s.Footer
	}
	return out
}

func encodeItem(item Item) map[string]any {
	out := map[string]any{string(itemIdentifier): item.Identifier}
	if item.Data != nil {
		out[string(itemData)] = EncodeData(item.Data)
	}
	return out
}

// EncodeData converts any ItemData, including domain types, into the untyped
// payload shape.
func EncodeData(data ItemData) map[string]any {
	out := map[string]any{}
	if v, ok := data.Title(); ok {
		out[string(dataTitle)] = v
	}
	if v, ok := data.Detail(); ok {
		out[string(dataDetail)] = v
	}
	if v, ok := data.Image(); ok {
		out[string(dataImage)] = v
	}
	if custom := data.Custom(); custom != nil {
		out[string(dataCustom)] = custom.Interface()
	}
	if child := data.Child(); child != nil {
		out[string(dataTable)] = Encode(*child)
	}
	return out
}
