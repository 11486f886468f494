package engine

import "errors"

var (
	// ErrBusy is returned when a cycle is requested while another is still running.
	ErrBusy = errors.New("a polling cycle is already running")
	// ErrRoundNotActive is returned by queries when no round is live.
	ErrRoundNotActive = errors.New("no event is currently running")
)
