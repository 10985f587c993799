package backend

import (
	"errors"
	"fmt"
)

var ErrUnknownCommand = errors.New("unknown command")

// CommandError is a failure reported by the backend for one command. Message
// is the backend's own text, passed to the user unchanged.
type CommandError struct {
	Command Command
	Message string
}

func (e *CommandError) Error() string {
	if e == nil {
		return "command failed"
	}
	return e.Message
}

type HTTPStatusError struct {
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "http request failed"
	}
	if e.Status != "" {
		return e.Status
	}
	return fmt.Sprintf("http status %d", e.StatusCode)
}

// ErrorText returns the message a command failure should show. Backend
// reported failures keep their text verbatim.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Message
	}
	return err.Error()
}
