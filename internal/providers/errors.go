package providers

import (
	"errors"
	"fmt"
)

// ErrNoEventRunning signals that the source answered but has no round to serve.
var ErrNoEventRunning = errors.New("no event is currently running")

// ErrProviderUnavailable is returned when a fetcher has not been configured.
var ErrProviderUnavailable = errors.New("leaderboard source unavailable")

// FetchError describes a failed request against a leaderboard source.
type FetchError struct {
	Source     string
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s: fetch %s failed", e.Source, e.Endpoint)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status=%d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsNoEvent reports whether err means the source has no running round, as opposed to
// a transport problem worth retrying.
func IsNoEvent(err error) bool {
	return errors.Is(err, ErrNoEventRunning)
}
