package modes

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"hggrip/internal/ui/views"
)

// InputMode reads one line of text
type InputMode struct {
	prompt string
	input  textinput.Model
	done   func(text string, ok bool)
}

func NewInputMode(prompt, initial string, done func(text string, ok bool)) *InputMode {
	ti := textinput.New()
	ti.Prompt = "" // the prompt is drawn above the field
	ti.SetValue(initial)
	ti.CursorEnd()
	ti.Focus()
	return &InputMode{prompt: prompt, input: ti, done: done}
}

func (m *InputMode) Name() string {
	return "input"
}

// Value returns the text typed so far
func (m *InputMode) Value() string {
	return m.input.Value()
}

func (m *InputMode) HandleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.done("", false)
		return true, nil
	case "enter":
		m.input.Blur()
		m.done(m.input.Value(), true)
		return true, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return false, cmd
}

func (m *InputMode) Cancel() {
	m.done("", false)
}

func (m *InputMode) View(st *views.Styles, width int) string {
	w := popupWidth(width)
	m.input.Width = w - 4
	return st.Popup.Width(w).Render(
		st.Title.Render(m.prompt) + "\n" + m.input.View() + "\n\n" + st.Help.Render("enter: accept • esc: cancel"),
	)
}
