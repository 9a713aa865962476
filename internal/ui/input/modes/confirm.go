package modes

import (
	tea "github.com/charmbracelet/bubbletea"

	"hggrip/internal/ui/views"
)

// ConfirmMode asks a yes/no question
type ConfirmMode struct {
	question string
	done     func(yes bool)
}

func NewConfirmMode(question string, done func(yes bool)) *ConfirmMode {
	return &ConfirmMode{question: question, done: done}
}

func (m *ConfirmMode) Name() string {
	return "confirm"
}

func (m *ConfirmMode) HandleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.done(true)
		return true, nil
	case "n", "N", "esc", "q":
		m.done(false)
		return true, nil
	}
	return false, nil
}

func (m *ConfirmMode) Cancel() {
	m.done(false)
}

func (m *ConfirmMode) View(st *views.Styles, width int) string {
	return st.Popup.Width(popupWidth(width)).Render(
		st.Confirm.Render(m.question) + "\n\n" + st.Help.Render("y: yes • n/esc: no"),
	)
}

// popupWidth keeps popups readable on both narrow and wide terminals
func popupWidth(width int) int {
	w := width - 4
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return w
}
