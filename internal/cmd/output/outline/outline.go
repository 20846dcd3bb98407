// Package outline prints a model table as a Markdown outline, rendered for the
// terminal with glamour.
package outline

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/kong/tablemodel/internal/model"
	"github.com/muesli/termenv"
)

var (
	defaultRenderer *glamour.TermRenderer
	defaultMu       sync.RWMutex
)

// Options controls markdown rendering behaviour.
type Options struct {
	NoColor bool
	Width   int
}

// Markdown writes t and every child table as nested Markdown lists.
func Markdown(t model.Table) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n", escape(t.Title))
	for i, section := range t.Sections {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "## %s\n\n", escape(sectionName(section, i)))
		writeItems(&sb, section.Items, 0)
		if section.Footer != nil && strings.TrimSpace(*section.Footer) != "" {
			fmt.Fprintf(&sb, "\n_%s_\n", escape(*section.Footer))
		}
	}
	if t.IsEmpty() {
		sb.WriteString("\n_No sections._\n")
	}
	return sb.String()
}

func sectionName(s model.Section, index int) string {
	if s.Header != nil && strings.TrimSpace(*s.Header) != "" {
		return *s.Header
	}
	if s.ID != "" {
		return s.ID
	}
	return fmt.Sprintf("Section %d", index+1)
}

func writeItems(sb *strings.Builder, items []model.Item, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, item := range items {
		sb.WriteString(indent)
		sb.WriteString("- ")
		sb.WriteString(itemLine(item))
		sb.WriteString("\n")

		child := item.Child()
		if child == nil {
			continue
		}
		for i, section := range child.Sections {
			fmt.Fprintf(sb, "%s  - _%s › %s_\n", indent, escape(child.Title), escape(sectionName(section, i)))
			writeItems(sb, section.Items, depth+2)
		}
	}
}

func itemLine(item model.Item) string {
	id := "`" + item.Identifier + "`"
	if item.Data == nil {
		return id
	}
	line := id
	if title, ok := item.Data.Title(); ok && title != "" {
		line = "**" + escape(title) + "** " + id
	}
	if detail, ok := item.Data.Detail(); ok && detail != "" {
		line += ": " + escape(detail)
	}
	if custom := item.Data.Custom(); len(custom) > 0 {
		pairs := make([]string, 0, len(custom))
		for _, key := range custom.Keys() {
			pairs = append(pairs, key+"="+custom[key].String())
		}
		line += " (" + escape(strings.Join(pairs, ", ")) + ")"
	}
	return line
}

var escaper = strings.NewReplacer("*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`)

func escape(s string) string {
	return escaper.Replace(s)
}

// Render renders markdown for the terminal. When rendering fails the
// markdown is returned unchanged.
func Render(markdown string, opts Options) string {
	var (
		r   *glamour.TermRenderer
		err error
	)

	if opts.Width > 0 || opts.NoColor {
		r, err = newRenderer(opts)
	} else {
		r, err = getDefaultRenderer()
	}
	if err != nil {
		return markdown
	}

	str, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return normalizeSpacing(str)
}

func normalizeSpacing(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
		if i == 0 {
			lines[i] = strings.TrimLeft(lines[i], " ")
		}
	}
	return strings.Join(lines, "\n")
}

func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	options := []glamour.TermRendererOption{}
	if opts.NoColor {
		options = append(options,
			glamour.WithStandardStyle("notty"),
			glamour.WithColorProfile(termenv.Ascii),
		)
	} else {
		options = append(options,
			glamour.WithAutoStyle(),
			glamour.WithColorProfile(termenv.TrueColor),
		)
	}
	if opts.Width > 0 {
		options = append(options, glamour.WithWordWrap(opts.Width))
	}
	return glamour.NewTermRenderer(options...)
}

func getDefaultRenderer() (*glamour.TermRenderer, error) {
	defaultMu.RLock()
	if defaultRenderer != nil {
		r := defaultRenderer
		defaultMu.RUnlock()
		return r, nil
	}
	defaultMu.RUnlock()

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRenderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithColorProfile(termenv.TrueColor),
		)
		if err != nil {
			return nil, err
		}
		defaultRenderer = r
	}

	return defaultRenderer, nil
}
