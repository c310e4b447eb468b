package session

import "context"

// Change is the result of applying an event. Dropped is set when the
// session no longer existed and the event was discarded.
type Change struct {
	From    State
	Session Session
	Dropped bool
}

// Store owns sessions. Apply is atomic per session id.
type Store interface {
	Get(ctx context.Context, id string) (Session, error)
	Apply(ctx context.Context, id string, e Event) (Change, error)
	Delete(ctx context.Context, id string) error
}

// apply is the store-independent part of Apply.
func apply(current Session, exists bool, id string, e Event) (Change, error) {
	if !exists {
		current = New(id)
		if !e.Starts() {
			return Change{From: current.State, Session: current, Dropped: true}, nil
		}
	}
	next, err := Reduce(current, e)
	if err != nil {
		return Change{From: current.State, Session: current}, err
	}
	next.ID = id
	return Change{From: current.State, Session: next}, nil
}
