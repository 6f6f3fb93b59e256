package terminal

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("terminal: aborted")
	// ErrNoSelection is returned when the driver reports an option outside the list.
	ErrNoSelection = errors.New("terminal: no option selected")
)
