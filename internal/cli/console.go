package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"hggrip/internal/commands"
)

// consoleRenderer implements commands.Renderer on a plain terminal. Dialogs
// read answers from in, one line each.
type consoleRenderer struct {
	in  *bufio.Reader
	out io.Writer

	// editor edits text and returns the result; nil accepts the text unchanged
	editor  func(title, text string) (string, error)
	onClose func(title, text string)
	status  map[string]string
}

var _ commands.Renderer = (*consoleRenderer)(nil)

func newConsoleRenderer(in io.Reader, out io.Writer) *consoleRenderer {
	return &consoleRenderer{
		in:     bufio.NewReader(in),
		out:    out,
		status: make(map[string]string),
	}
}

// readLine returns the next input line without its newline; EOF reads as empty
func (c *consoleRenderer) readLine() (string, bool) {
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}

func (c *consoleRenderer) Panel(text string, clear bool) {
	io.WriteString(c.out, text)
}

func (c *consoleRenderer) ShowPanel() {}

func (c *consoleRenderer) Scratch(text, title, syntax string) {
	fmt.Fprintf(c.out, "== %s ==\n%s\n", title, strings.TrimRight(text, "\n"))
}

func (c *consoleRenderer) SetStatus(key, text string) {
	c.status[key] = text
	fmt.Fprintf(c.out, "%s: %s\n", key, text)
}

func (c *consoleRenderer) EraseStatus(key string) {
	delete(c.status, key)
}

func (c *consoleRenderer) QuickPanel(items []string, done func(index int)) {
	for i, item := range items {
		fmt.Fprintf(c.out, "%3d) %s\n", i+1, item)
	}
	fmt.Fprint(c.out, "Select (empty to cancel): ")
	line, _ := c.readLine()
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 || n > len(items) {
		done(-1)
		return
	}
	done(n - 1)
}

func (c *consoleRenderer) InputPanel(prompt, initial string, done func(text string, ok bool)) {
	if initial != "" {
		fmt.Fprintf(c.out, "%s [%s] ", prompt, initial)
	} else {
		fmt.Fprintf(c.out, "%s ", prompt)
	}
	line, ok := c.readLine()
	if !ok {
		done("", false)
		return
	}
	if line == "" {
		line = initial
	}
	done(line, true)
}

func (c *consoleRenderer) Confirm(question string, done func(yes bool)) {
	fmt.Fprintf(c.out, "%s [y/N] ", question)
	line, _ := c.readLine()
	answer := strings.ToLower(strings.TrimSpace(line))
	done(answer == "y" || answer == "yes")
}

func (c *consoleRenderer) PromptDialog(question string, done func(answer []byte)) {
	fmt.Fprintf(c.out, "%s ", strings.TrimRight(question, " "))
	line, _ := c.readLine()
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		done([]byte("y"))
	case "n", "no":
		done([]byte("n"))
	default:
		done(nil)
	}
}

func (c *consoleRenderer) OpenEditor(title, text string) {
	edited := text
	if c.editor != nil {
		var err error
		edited, err = c.editor(title, text)
		if err != nil {
			fmt.Fprintf(c.out, "editor failed: %v\n", err)
			edited = ""
		}
	}
	if c.onClose != nil {
		c.onClose(title, edited)
	}
}

// externalEditor edits text in $VISUAL or $EDITOR through a temporary file
func externalEditor(title, text string) (string, error) {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	f, err := os.CreateTemp("", "hggrip-commit-*.txt")
	if err != nil {
		return "", err
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	fields := strings.Fields(editor)
	cmd := exec.Command(fields[0], append(fields[1:], f.Name())...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w", title, err)
	}

	data, err := os.ReadFile(f.Name())
	if err != nil {
		return "", err
	}
	return string(data), nil
}
