package util

import "testing"

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{name: "kind name", title: "plain", expected: "plain"},
		{name: "camel case kind", title: "leftDetail", expected: "left-detail"},
		{name: "pascal case kind", title: "TextInput", expected: "text-input"},
		{name: "snake case kind", title: "text_field", expected: "text-field"},
		{name: "upper snake case kind", title: "RIGHT_DETAIL", expected: "right-detail"},
		{name: "kind with digits", title: "value1", expected: "value1"},
		{name: "padded kind", title: "  Switch  ", expected: "switch"},
		{name: "class name with spaces", title: "Repo Avatar", expected: "repo-avatar"},
		{name: "class name with acronym", title: "HTMLCell", expected: "html-cell"},
		{name: "class name with trailing acronym", title: "avatarURL", expected: "avatar-url"},
		{name: "class name with punctuation", title: "Avatar (Rounded)", expected: "avatar-rounded"},
		{name: "class name with accents", title: "Café Cell", expected: "cafe-cell"},
		{name: "already slugged", title: "repo-avatar", expected: "repo-avatar"},
		{name: "empty", title: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateSlug(tt.title)
			if got != tt.expected {
				t.Errorf("GenerateSlug(%q) = %q, want %q", tt.title, got, tt.expected)
			}
		})
	}
}
