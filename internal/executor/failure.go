package executor

import (
	"errors"
	"strings"

	"hggrip/internal/hg"
)

// Kind classifies a failed command
type Kind int

const (
	// KindGeneric covers anything that is not a server-reported failure
	KindGeneric Kind = iota
	// KindCommand means the server ran the command and it returned non-zero
	KindCommand
)

// Failure is the error handed to completion callbacks. Only its text is
// meant for display; the underlying cause stays in the logs.
type Failure struct {
	Kind Kind
	Text string
}

func (f *Failure) Error() string { return f.Text }

// classify turns a session error into a Failure using enc to decode output
func classify(err error, enc string) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	var cmdErr *hg.CommandError
	if errors.As(err, &cmdErr) {
		text := joinNonBlank(hg.Decode(enc, cmdErr.Out), hg.Decode(enc, cmdErr.Err))
		if text == "" {
			text = cmdErr.Error()
		}
		return &Failure{Kind: KindCommand, Text: text}
	}
	return &Failure{Kind: KindGeneric, Text: err.Error()}
}

func joinNonBlank(parts ...string) string {
	var kept []string
	for _, p := range parts {
		p = strings.TrimRight(p, " \t\r\n")
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
