package modes

import (
	tea "github.com/charmbracelet/bubbletea"

	"hggrip/internal/ui/views"
)

// Mode is a modal interaction that owns the keyboard until it finishes.
// Every mode invokes its callback exactly once, either from HandleKey or
// from Cancel.
type Mode interface {
	Name() string
	// HandleKey reports whether the mode is finished
	HandleKey(msg tea.KeyMsg) (finished bool, cmd tea.Cmd)
	// Cancel finishes the mode with its cancel value
	Cancel()
	View(st *views.Styles, width int) string
}
