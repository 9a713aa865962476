package commands

import (
	"errors"
	"strconv"
	"strings"
)

// ErrNoServer means the target is not inside a repository. Callers treat it
// as a silent no-op.
var ErrNoServer = errors.New("no repository for target")

// StatusKey is the status bar slot that shows the branch status
const StatusKey = "Hgstate"

// Scratch buffer titles
const (
	TitleIncoming          = "Hg: Incoming"
	TitleOutgoing          = "Hg: Outgoing"
	TitleStatus            = "Hg: Status"
	TitleDiff              = "Hg: Diff"
	TitleBranches          = "Hg: Branches"
	TitleCommit            = "Hg: Commit"
	TitleCommitCloseBranch = "Hg: Commit close branch"
)

// SyntaxDiff asks the renderer to highlight a buffer as a unified diff
const SyntaxDiff = "diff"

// Renderer is the UI surface commands write to. All methods are called on
// the UI goroutine and every callback must be invoked exactly once, on the
// UI goroutine as well.
type Renderer interface {
	// Panel appends text to the output panel, clearing it first when clear is set
	Panel(text string, clear bool)
	ShowPanel()
	// Scratch shows text in a read-only buffer, reusing an open buffer with the same title
	Scratch(text, title, syntax string)
	SetStatus(key, text string)
	EraseStatus(key string)
	// QuickPanel lets the user pick one item; -1 means cancelled
	QuickPanel(items []string, done func(index int))
	InputPanel(prompt, initial string, done func(text string, ok bool))
	Confirm(question string, done func(yes bool))
	// PromptDialog answers a server question with y, n or nothing for cancel
	PromptDialog(question string, done func(answer []byte))
	// OpenEditor opens an editable buffer; closing it must reach Dispatcher.OnViewClosed
	OpenEditor(title, text string)
}

// Target describes where a command was invoked from
type Target struct {
	File   string // file shown in the active view, empty for unsaved views
	Folder string // folder open in the window
	Widget bool   // input widgets never belong to a repository
}

// Params are the named arguments of an operation
type Params map[string]any

// Bool reads a flag given either as a bool or as a string like "true"
func (p Params) Bool(key string) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	default:
		return false
	}
}

// String reads a string argument
func (p Params) String(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}
