package entity

import "errors"

var (
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrTimedOut          = errors.New("timed out")
	ErrActionFailed      = errors.New("action failed")
	ErrSessionClosed     = errors.New("session closed")
	ErrUnknownTool       = errors.New("unknown tool")

	// ErrSessionLost means the browser is gone (crashed or disconnected);
	// the trajectory cannot continue.
	ErrSessionLost = errors.New("browser session lost")
)
