package session

import (
	"context"
	"errors"
	"time"
)

var ErrStoreClosed = errors.New("session store closed")

type entry struct {
	session  Session
	lastSeen time.Time
}

type request struct {
	op    func(map[string]*entry, time.Time) (Change, error)
	reply chan result
}

type result struct {
	change Change
	err    error
}

// MemoryStore keeps sessions in a map owned by a single goroutine. Every
// read and write is a message to that goroutine.
type MemoryStore struct {
	ttl      time.Duration
	now      func() time.Time
	requests chan request
	done     chan struct{}
}

// NewMemoryStore starts the owner goroutine. Sessions idle for longer than
// ttl are removed by Sweep; ttl <= 0 keeps them forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		requests: make(chan request),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *MemoryStore) run() {
	sessions := make(map[string]*entry)
	for {
		select {
		case req := <-s.requests:
			change, err := req.op(sessions, s.now())
			req.reply <- result{change: change, err: err}
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) do(ctx context.Context, op func(map[string]*entry, time.Time) (Change, error)) (Change, error) {
	select {
	case <-s.done:
		return Change{}, ErrStoreClosed
	default:
	}

	req := request{op: op, reply: make(chan result, 1)}
	select {
	case s.requests <- req:
	case <-s.done:
		return Change{}, ErrStoreClosed
	case <-ctx.Done():
		return Change{}, ctx.Err()
	}
	res := <-req.reply
	return res.change, res.err
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Session, error) {
	c, err := s.do(ctx, func(m map[string]*entry, now time.Time) (Change, error) {
		e, ok := m[id]
		if !ok || s.expired(e, now) {
			return Change{Session: New(id)}, nil
		}
		e.lastSeen = now
		return Change{From: e.session.State, Session: e.session}, nil
	})
	return c.Session, err
}

func (s *MemoryStore) Apply(ctx context.Context, id string, ev Event) (Change, error) {
	return s.do(ctx, func(m map[string]*entry, now time.Time) (Change, error) {
		e, ok := m[id]
		if ok && s.expired(e, now) {
			delete(m, id)
			ok = false
		}
		var current Session
		if ok {
			current = e.session
		}
		if ev.At.IsZero() {
			ev.At = now
		}
		change, err := apply(current, ok, id, ev)
		if err != nil || change.Dropped {
			return change, err
		}
		m[id] = &entry{session: change.Session, lastSeen: now}
		return change, nil
	})
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	_, err := s.do(ctx, func(m map[string]*entry, _ time.Time) (Change, error) {
		delete(m, id)
		return Change{}, nil
	})
	return err
}

// Sweep removes expired sessions and reports how many it removed.
func (s *MemoryStore) Sweep(ctx context.Context) (int, error) {
	removed := 0
	_, err := s.do(ctx, func(m map[string]*entry, now time.Time) (Change, error) {
		for id, e := range m {
			if s.expired(e, now) {
				delete(m, id)
				removed++
			}
		}
		return Change{}, nil
	})
	return removed, err
}

// Close stops the owner goroutine. Later calls return ErrStoreClosed.
func (s *MemoryStore) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *MemoryStore) expired(e *entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastSeen) > s.ttl
}
