package listview

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kong/tablemodel/internal/theme"
)

const searchIdleTimeout = 10 * time.Second

type searchTimeoutMsg struct {
	deadline time.Time
}

func (m *bubbleModel) startSearch() tea.Cmd {
	m.clearStatus()
	m.searchActive = true
	m.searchBuffer = m.searchBuffer[:0]
	return m.scheduleSearchTimeout()
}

func (m *bubbleModel) exitSearch(preserveStatus bool) {
	if !m.searchActive {
		return
	}
	m.searchActive = false
	m.searchBuffer = nil
	m.searchDeadline = time.Time{}
	if !preserveStatus && strings.HasPrefix(m.statusMessage, "No match for '/") {
		m.clearStatus()
	}
}

func (m *bubbleModel) scheduleSearchTimeout() tea.Cmd {
	if !m.searchActive {
		return nil
	}
	deadline := time.Now().Add(searchIdleTimeout)
	m.searchDeadline = deadline
	return tea.Tick(searchIdleTimeout, func(time.Time) tea.Msg {
		return searchTimeoutMsg{deadline: deadline}
	})
}

func (m *bubbleModel) searchPrompt() string {
	if !m.searchActive {
		return ""
	}
	return "/" + string(m.searchBuffer)
}

// handleSearchKey consumes keys while a search is being typed. It reports
// whether the key was handled.
func (m *bubbleModel) handleSearchKey(key tea.KeyMsg) (bool, tea.Cmd) {
	if !m.searchActive {
		if key.Type == tea.KeyRunes && !key.Alt && len(key.Runes) == 1 && key.Runes[0] == '/' {
			return true, m.startSearch()
		}
		return false, nil
	}

	switch key.Type { //nolint:exhaustive
	case tea.KeyEsc, tea.KeyEnter:
		m.exitSearch(key.Type == tea.KeyEnter)
		return true, nil
	case tea.KeyBackspace:
		if len(m.searchBuffer) == 0 {
			m.exitSearch(false)
			return true, nil
		}
		m.searchBuffer = m.searchBuffer[:len(m.searchBuffer)-1]
	case tea.KeyRunes, tea.KeySpace:
		m.searchBuffer = append(m.searchBuffer, key.Runes...)
		if key.Type == tea.KeySpace && len(key.Runes) == 0 {
			m.searchBuffer = append(m.searchBuffer, ' ')
		}
	default:
		// navigation keys end the search and act normally
		m.exitSearch(true)
		return false, nil
	}

	m.applySearchQuery()
	return true, m.scheduleSearchTimeout()
}

func (m *bubbleModel) applySearchQuery() {
	top := m.top()
	query := string(m.searchBuffer)
	if strings.TrimSpace(query) == "" {
		m.clearStatus()
		return
	}
	index, ok := findMatchIndex(query, top.cursor, len(top.selectable), top.labelAt)
	if !ok {
		m.statusMessage = fmt.Sprintf("No match for '/%s'", query)
		return
	}
	m.clearStatus()
	top.moveTo(index)
}

func (m *bubbleModel) renderSearchPrompt() string {
	return m.palette.ForegroundStyle(theme.ColorAccent).Render(m.searchPrompt()) +
		lipgloss.NewStyle().Faint(true).Render("  enter to keep · esc to cancel")
}

func findMatchIndex(query string, cursor, total int, label func(int) string) (int, bool) {
	if total == 0 {
		return -1, false
	}
	if cursor < 0 || cursor >= total {
		cursor = 0
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return cursor, true
	}

	bestIdx := -1
	bestScore := 0
	for offset := range total {
		idx := (cursor + offset) % total
		text := strings.ToLower(strings.TrimSpace(label(idx)))
		if text == "" {
			continue
		}
		score := matchScore(text, needle)
		if score == 3 {
			return idx, true
		}
		if score > bestScore {
			bestScore = score
			bestIdx = idx
		}
	}
	if bestIdx >= 0 {
		return bestIdx, true
	}
	return -1, false
}

func matchScore(text, needle string) int {
	if strings.HasPrefix(text, needle) {
		return 3
	}
	if strings.Contains(text, needle) {
		return 2
	}
	if fuzzyContains(text, needle) {
		return 1
	}
	return 0
}

func fuzzyContains(text, needle string) bool {
	j := 0
	for i := 0; i < len(text) && j < len(needle); i++ {
		if text[i] == needle[j] {
			j++
		}
	}
	return j == len(needle)
}
