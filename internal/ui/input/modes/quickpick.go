package modes

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"hggrip/internal/ui/views"
)

// maxVisibleItems is how many quick pick rows are drawn at once
const maxVisibleItems = 12

// QuickPickMode lets the user choose one item from a list
type QuickPickMode struct {
	items  []string
	cursor int
	done   func(index int)
}

func NewQuickPickMode(items []string, done func(index int)) *QuickPickMode {
	return &QuickPickMode{items: items, done: done}
}

func (m *QuickPickMode) Name() string {
	return "quick-pick"
}

// Cursor returns the highlighted item
func (m *QuickPickMode) Cursor() int {
	return m.cursor
}

func (m *QuickPickMode) HandleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.done(-1)
		return true, nil
	case "enter":
		if len(m.items) == 0 {
			m.done(-1)
		} else {
			m.done(m.cursor)
		}
		return true, nil
	case "up", "k":
		m.cursor--
		if m.cursor < 0 {
			m.cursor = len(m.items) - 1
		}
	case "down", "j":
		m.cursor++
		if m.cursor >= len(m.items) {
			m.cursor = 0
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return false, nil
}

func (m *QuickPickMode) Cancel() {
	m.done(-1)
}

func (m *QuickPickMode) View(st *views.Styles, width int) string {
	start := 0
	if m.cursor >= maxVisibleItems {
		start = m.cursor - maxVisibleItems + 1
	}
	end := min(start+maxVisibleItems, len(m.items))

	var b strings.Builder
	for i := start; i < end; i++ {
		if i == m.cursor {
			b.WriteString(st.Highlight.Render("> " + m.items[i]))
		} else {
			b.WriteString("  " + m.items[i])
		}
		b.WriteString("\n")
	}
	if len(m.items) == 0 {
		b.WriteString(st.Dim.Render("(nothing to pick)") + "\n")
	}
	b.WriteString("\n" + st.Help.Render("↑/↓: move • enter: select • esc: cancel"))
	return st.Popup.Width(popupWidth(width)).Render(b.String())
}
