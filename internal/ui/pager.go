package ui

import (
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/noborus/ov/oviewer"
)

// pagerCommand shows text in ov. It runs through tea.Exec so the program
// releases the terminal while the pager owns it.
type pagerCommand struct {
	text string
}

func (c *pagerCommand) Run() error {
	root, err := oviewer.NewRoot(strings.NewReader(c.text))
	if err != nil {
		return err
	}

	// Leave the TUI screen alone when ov exits
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}

// ov opens its own tty
func (c *pagerCommand) SetStdin(io.Reader)  {}
func (c *pagerCommand) SetStdout(io.Writer) {}
func (c *pagerCommand) SetStderr(io.Writer) {}

func openPager(text string) tea.Cmd {
	return tea.Exec(&pagerCommand{text: text}, func(err error) tea.Msg {
		return pagerDoneMsg{err: err}
	})
}
