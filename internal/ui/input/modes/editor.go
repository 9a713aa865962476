package modes

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"hggrip/internal/ui/views"
)

// EditorMode is an editable buffer. Closing it hands the text to onClose,
// whatever key closed it.
type EditorMode struct {
	title   string
	area    textarea.Model
	onClose func(title, text string)
}

func NewEditorMode(title, text string, onClose func(title, text string)) *EditorMode {
	ta := textarea.New()
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.ShowLineNumbers = false
	ta.SetValue(text)
	// start on the first line, where the message goes
	for ta.Line() > 0 {
		ta.CursorUp()
	}
	ta.CursorStart()
	ta.Focus()
	return &EditorMode{title: title, area: ta, onClose: onClose}
}

func (m *EditorMode) Name() string {
	return "editor"
}

// Title returns the buffer title
func (m *EditorMode) Title() string {
	return m.title
}

// Value returns the current buffer text
func (m *EditorMode) Value() string {
	return m.area.Value()
}

// SetSize fits the text area into the space left by the main view
func (m *EditorMode) SetSize(width, height int) {
	m.area.SetWidth(max(width-4, 10))
	m.area.SetHeight(max(height-6, 3))
}

func (m *EditorMode) HandleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+s":
		m.area.Blur()
		m.onClose(m.title, m.area.Value())
		return true, nil
	}
	var cmd tea.Cmd
	m.area, cmd = m.area.Update(msg)
	return false, cmd
}

// Cancel closes the buffer with no text, which aborts the commit
func (m *EditorMode) Cancel() {
	m.onClose(m.title, "")
}

func (m *EditorMode) View(st *views.Styles, width int) string {
	return st.Title.Render(m.title) + "\n" +
		m.area.View() + "\n" +
		st.Help.Render("esc/ctrl+s: close and commit • clear the message to abort")
}
