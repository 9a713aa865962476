package views

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title       lipgloss.Style
	Confirm     lipgloss.Style
	Dim         lipgloss.Style
	Help        lipgloss.Style
	Highlight   lipgloss.Style
	SelectionBg lipgloss.Style
	Popup       lipgloss.Style
	Panel       lipgloss.Style
	Tab         lipgloss.Style
	ActiveTab   lipgloss.Style
	StatusBar   lipgloss.Style
	Busy        lipgloss.Style
	DiffAdd     lipgloss.Style
	DiffDel     lipgloss.Style
	DiffHunk    lipgloss.Style
	DiffHeader  lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		Confirm:     lipgloss.NewStyle().Bold(true),
		Dim:         lipgloss.NewStyle().Faint(true),
		Help:        lipgloss.NewStyle().Faint(true),
		Highlight:   lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		SelectionBg: lipgloss.NewStyle().Background(lipgloss.Color("238")),
		Popup: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(0, 1),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(lipgloss.Color("241")),
		Tab:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
		ActiveTab:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).Underline(true).Padding(0, 1),
		StatusBar:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Busy:       lipgloss.NewStyle().Foreground(lipgloss.Color("51")),  // cyan
		DiffAdd:    lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
		DiffDel:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		DiffHunk:   lipgloss.NewStyle().Foreground(lipgloss.Color("51")),
		DiffHeader: lipgloss.NewStyle().Bold(true),
	}
}

// BranchColor returns the color used for a Mercurial branch name
func BranchColor(branch string) string {
	switch branch {
	case "default":
		return "78" // green
	case "stable":
		return "33" // blue
	case "":
		return "203" // red
	default:
		return "214" // yellow for feature branches
	}
}

// HighlightDiff colors a unified diff line by line
func (s *Styles) HighlightDiff(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), strings.HasPrefix(line, "diff "):
			lines[i] = s.DiffHeader.Render(line)
		case strings.HasPrefix(line, "@@"):
			lines[i] = s.DiffHunk.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = s.DiffAdd.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = s.DiffDel.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
