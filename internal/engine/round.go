package engine

import "sync/atomic"

// RoundState is whether the remote source is serving a live round.
type RoundState int32

const (
	NotStarted RoundState = iota
	Active
)

func (s RoundState) String() string {
	if s == Active {
		return "active"
	}
	return "not_started"
}

// Transition is the result of feeding one fetch outcome into the round machine.
type Transition struct {
	From RoundState
	To   RoundState
}

// Started is true only on the NotStarted to Active edge.
func (t Transition) Started() bool {
	return t.From == NotStarted && t.To == Active
}

// Continuing is true when the round was already active and stays active.
func (t Transition) Continuing() bool {
	return t.From == Active && t.To == Active
}

// Round tracks the round state. Reads are safe from any goroutine; Observe is only
// called by the cycle owner.
type Round struct {
	state atomic.Int32
}

// State returns the current state.
func (r *Round) State() RoundState {
	return RoundState(r.state.Load())
}

// Observe applies a fetch outcome. Success moves to Active; failure from any state
// moves to NotStarted.
func (r *Round) Observe(success bool) Transition {
	next := NotStarted
	if success {
		next = Active
	}
	prev := RoundState(r.state.Swap(int32(next)))
	return Transition{From: prev, To: next}
}
