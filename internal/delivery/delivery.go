package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/preston-bernstein/ranking-bot/internal/domain/notifications"
)

// Deliverer sends one event to its subscriber.
type Deliverer interface {
	Deliver(ctx context.Context, ev notifications.Event) error
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, ev notifications.Event) error

func (f DelivererFunc) Deliver(ctx context.Context, ev notifications.Event) error {
	return f(ctx, ev)
}

// Kind separates failures that end a subscription from ones worth trying next cycle.
type Kind int

const (
	KindTransient Kind = iota
	KindPermanent
)

func (k Kind) String() string {
	if k == KindPermanent {
		return "permanent"
	}
	return "transient"
}

// Error is a classified delivery failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String() + " delivery failure"
	}
	return fmt.Sprintf("%s delivery failure: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Permanent marks err as unrecoverable for this subscriber (blocked, deleted chat).
func Permanent(err error) error {
	return &Error{Kind: KindPermanent, Err: err}
}

// Transient marks err as a one-off failure.
func Transient(err error) error {
	return &Error{Kind: KindTransient, Err: err}
}

// IsPermanent reports whether err carries a permanent classification. Unclassified
// errors are transient.
func IsPermanent(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == KindPermanent
}
