package hg

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrClosed is returned when a command is issued on a closed client
	ErrClosed = errors.New("hg: command server closed")
	// ErrProtocol indicates the server sent something the client cannot interpret
	ErrProtocol = errors.New("hg: protocol error")
)

// CommandError is returned when a command finishes with a non-zero return code
type CommandError struct {
	Args []string
	Code int
	Out  []byte
	Err  []byte
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("hg %s: return code %d", strings.Join(e.Args, " "), e.Code)
}
