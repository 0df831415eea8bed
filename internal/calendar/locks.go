package calendar

import (
	"context"
	"sync"
)

// Target names the thing an operation mutates: one event or one series.
type Target struct {
	Series bool
	ID     string
}

// EventTarget returns the target for the event with the given id.
func EventTarget(id string) Target { return Target{ID: id} }

// SeriesTarget returns the target for the series with the given group id.
func SeriesTarget(groupID string) Target { return Target{Series: true, ID: groupID} }

func (t Target) String() string {
	if t.Series {
		return "series:" + t.ID
	}
	return "event:" + t.ID
}

type slot struct {
	op   Op
	done chan struct{}
}

// targetLocks serializes operations per target. Operations on different
// targets never wait for each other.
type targetLocks struct {
	mu    sync.Mutex
	slots map[Target]*slot
}

func newTargetLocks() *targetLocks {
	return &targetLocks{slots: make(map[Target]*slot)}
}

// acquire blocks until t is free or ctx is done. The returned func releases t.
func (l *targetLocks) acquire(ctx context.Context, t Target, op Op) (func(), error) {
	for {
		l.mu.Lock()
		s, busy := l.slots[t]
		if !busy {
			s = &slot{op: op, done: make(chan struct{})}
			l.slots[t] = s
			l.mu.Unlock()
			return func() {
				l.mu.Lock()
				delete(l.slots, t)
				l.mu.Unlock()
				close(s.done)
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-s.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (l *targetLocks) pending(t Target) (Op, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[t]
	if !ok {
		return 0, false
	}
	return s.op, true
}
