package modes

import (
	tea "github.com/charmbracelet/bubbletea"

	"hggrip/internal/ui/views"
)

// PromptMode answers a question asked by the command server while a
// command is running. Esc and enter send an empty answer, which makes the
// server take its default.
type PromptMode struct {
	question string
	done     func(answer []byte)
}

func NewPromptMode(question string, done func(answer []byte)) *PromptMode {
	return &PromptMode{question: question, done: done}
}

func (m *PromptMode) Name() string {
	return "prompt"
}

func (m *PromptMode) HandleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.done([]byte("y"))
		return true, nil
	case "n", "N":
		m.done([]byte("n"))
		return true, nil
	case "esc", "enter":
		m.done(nil)
		return true, nil
	}
	return false, nil
}

func (m *PromptMode) Cancel() {
	m.done(nil)
}

func (m *PromptMode) View(st *views.Styles, width int) string {
	return st.Popup.Width(popupWidth(width)).Render(
		st.Confirm.Render(m.question) + "\n\n" + st.Help.Render("y: yes • n: no • esc: default"),
	)
}
