package listview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/kong/tablemodel/internal/cell"
	"github.com/kong/tablemodel/internal/theme"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
)

const (
	selectedMarker   = "▸ "
	unselectedMarker = "  "
	disclosureGlyph  = "›"
	loadingGlyph     = "·"
	leftDetailWidth  = 10
)

type styles struct {
	palette   theme.Palette
	title     lipgloss.Style
	emphasis  lipgloss.Style
	detail    lipgloss.Style
	muted     lipgloss.Style
	header    lipgloss.Style
	footer    lipgloss.Style
	selected  lipgloss.Style
	accessory lipgloss.Style
	button    lipgloss.Style
	switchOn  lipgloss.Style
	switchOff lipgloss.Style
	input     lipgloss.Style
	heading   lipgloss.Style
}

func newStyles(p theme.Palette) styles {
	return styles{
		palette:   p,
		title:     p.ForegroundStyle(theme.ColorTextPrimary),
		emphasis:  p.ForegroundStyle(theme.ColorTextPrimary).Bold(true),
		detail:    p.ForegroundStyle(theme.ColorTextSecondary),
		muted:     p.ForegroundStyle(theme.ColorTextMuted),
		header:    p.ForegroundStyle(theme.ColorTextMuted).Bold(true),
		footer:    p.ForegroundStyle(theme.ColorTextMuted).Italic(true),
		selected:  p.ForegroundStyle(theme.ColorAccent).Bold(true),
		accessory: p.ForegroundStyle(theme.ColorTextMuted),
		button:    p.ForegroundStyle(theme.ColorPrimary).Bold(true),
		switchOn:  p.ForegroundStyle(theme.ColorSuccess).Bold(true),
		switchOff: p.ForegroundStyle(theme.ColorTextMuted),
		input:     p.ForegroundStyle(theme.ColorInfo),
		heading:   p.ForegroundStyle(theme.ColorPrimary).Bold(true),
	}
}

func renderHeader(text string, width int, st styles) string {
	return truncateLine(st.header.Render(strings.ToUpper(strings.TrimSpace(text))), width)
}

func renderFooter(text string, width int, st styles) string {
	wrapped := strings.TrimSpace(text)
	if width > 0 {
		wrapped = wordwrap.String(wrapped, width)
	}
	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		lines[i] = truncateLine(st.footer.Render(line), width)
	}
	return strings.Join(lines, "\n")
}

// renderContent draws a renderer snapshot as one or more terminal lines that
// fit in width columns, the selection marker included.
func renderContent(c cell.Content, width int, selected bool, st styles) string {
	marker := unselectedMarker
	if selected {
		marker = st.selected.Render(selectedMarker)
	}
	inner := width - lipgloss.Width(unselectedMarker)
	if width <= 0 {
		inner = 0
	}

	lines := contentLines(c, inner, selected, st)
	indent := strings.Repeat(" ", lipgloss.Width(unselectedMarker))
	for i, line := range lines {
		prefix := indent
		if i == 0 {
			prefix = marker
		}
		lines[i] = prefix + truncateLine(line, inner)
	}
	return strings.Join(lines, "\n")
}

func contentLines(c cell.Content, width int, selected bool, st styles) []string {
	if c.Layout == cell.LayoutCustom {
		if len(c.Lines) == 0 {
			return []string{""}
		}
		return append([]string(nil), c.Lines...)
	}

	glyph := renderGlyph(c, st)
	title := renderTitle(c, selected, st)
	detailStyle := st.title
	if c.Style.MutedDetail {
		detailStyle = st.detail
	}

	var left string
	switch c.Control {
	case cell.ControlButton:
		return []string{joinGlyph(glyph, centerIn(title, width-lipgloss.Width(glyph)-1))}
	case cell.ControlTextField:
		field := c.Input
		if !c.Focused {
			switch {
			case c.Value != "":
				field = st.input.Render(c.Value)
			case c.Detail != "":
				field = st.muted.Render(c.Detail)
			default:
				field = ""
			}
		}
		left = joinGlyph(glyph, title)
		if field != "" {
			left += st.muted.Render(": ") + field
		}
		return []string{left}
	}

	var right string
	switch c.Layout {
	case cell.LayoutLeftDetail:
		label := runewidth.FillRight(runewidth.Truncate(c.Detail, leftDetailWidth, "…"), leftDetailWidth)
		left = joinGlyph(glyph, st.detail.Render(label)+" "+title)
	case cell.LayoutRightDetail:
		left = joinGlyph(glyph, title)
		right = detailStyle.Render(c.Detail)
	default:
		left = joinGlyph(glyph, title)
	}

	if c.Control == cell.ControlSwitch {
		right = joinRight(right, renderSwitch(c.On, st))
	}
	if c.Accessory == cell.AccessoryDisclosure {
		right = joinRight(right, st.accessory.Render(disclosureGlyph))
	}

	lines := []string{alignRow(left, right, width)}
	if c.Layout == cell.LayoutSubtitle && c.Detail != "" {
		indent := ""
		if glyph != "" {
			indent = strings.Repeat(" ", lipgloss.Width(glyph)+1)
		}
		lines = append(lines, indent+detailStyle.Render(c.Detail))
	}
	return lines
}

func renderTitle(c cell.Content, selected bool, st styles) string {
	switch {
	case c.Control == cell.ControlButton:
		return st.button.Render(c.Text)
	case c.Style.EmphasizeTitle || selected:
		return st.emphasis.Render(c.Text)
	default:
		return st.title.Render(c.Text)
	}
}

// renderGlyph draws the item image. References still loading show a
// placeholder so rows keep their alignment.
func renderGlyph(c cell.Content, st styles) string {
	if c.ImageRef == "" {
		return ""
	}
	if c.Image == nil {
		return st.muted.Render(loadingGlyph)
	}
	color := lipgloss.Color(c.Image.Color)
	if c.Image.Initial == "" {
		glyph := "■"
		if c.Style.RoundedImage {
			glyph = "●"
		}
		return lipgloss.NewStyle().Foreground(color).Render(glyph)
	}
	initial := c.Image.Initial
	if c.Style.RoundedImage {
		return lipgloss.NewStyle().Foreground(color).Render("(") +
			lipgloss.NewStyle().Foreground(color).Bold(true).Render(initial) +
			lipgloss.NewStyle().Foreground(color).Render(")")
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(contrastText(c.Image.Color))).
		Background(color).
		Render(" " + initial + " ")
}

func renderSwitch(on bool, st styles) string {
	if on {
		return st.switchOn.Render("◉ on")
	}
	return st.switchOff.Render("○ off")
}

func joinGlyph(glyph, text string) string {
	if glyph == "" {
		return text
	}
	return glyph + " " + text
}

func joinRight(existing, next string) string {
	if existing == "" {
		return next
	}
	return existing + " " + next
}

// alignRow places right at the end of a width wide row. The left side is
// truncated first when both do not fit.
func alignRow(left, right string, width int) string {
	if right == "" {
		return left
	}
	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	if width <= 0 {
		return left + " " + right
	}
	if leftWidth+rightWidth+1 > width {
		avail := width - rightWidth - 1
		if avail < 1 {
			return truncateLine(right, width)
		}
		left = ansi.Truncate(left, avail, "…")
		leftWidth = lipgloss.Width(left)
	}
	return left + strings.Repeat(" ", max(1, width-leftWidth-rightWidth)) + right
}

func centerIn(text string, width int) string {
	w := lipgloss.Width(text)
	if width <= w {
		return text
	}
	return strings.Repeat(" ", (width-w)/2) + text
}

func truncateLine(line string, width int) string {
	if width <= 0 || lipgloss.Width(line) <= width {
		return line
	}
	return ansi.Truncate(line, width, "…")
}

// contrastText picks a text color readable on top of hex.
func contrastText(hex string) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return "#FFFFFF"
	}
	_, _, l := c.Hcl()
	if l > 0.7 {
		return "#121418"
	}
	return "#FFFFFF"
}
