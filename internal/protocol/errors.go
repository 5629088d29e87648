package protocol

import (
	"errors"
	"fmt"

	"github.com/fenilsonani/imapclient/internal/respparser"
)

// ErrConnectionClosed is delivered to every pending command when the
// transport closes while commands are outstanding.
var ErrConnectionClosed = errors.New("protocol: connection closed")

// ErrNotIdle is returned by ExitIdle when no IDLE command is active.
var ErrNotIdle = errors.New("protocol: not currently idling")

// ErrAlreadyIdle is returned by EnterIdle when an IDLE command is
// already active.
var ErrAlreadyIdle = errors.New("protocol: already idling")

// ErrTimeout is not returned by the Engine: a command whose context
// expires fails with the context's own error, which the client facade
// turns into a TimeoutError.
var ErrTimeout = errors.New("protocol: command timed out")

// CommandError reports a tagged NO or BAD response.
type CommandError struct {
	Tag     string
	Status  respparser.Status
	Text    string
	Command string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("protocol: command %q tagged %s: %s", e.Command, e.Status, e.Text)
}

// LiteralSizeError reports that the server closed the connection or an
// otherwise-terminal condition occurred before a declared literal was
// fully delivered.
type LiteralSizeError struct {
	Declared  int64
	Delivered int64
}

func (e *LiteralSizeError) Error() string {
	return fmt.Sprintf("protocol: literal declared %d bytes but only %d arrived", e.Declared, e.Delivered)
}
