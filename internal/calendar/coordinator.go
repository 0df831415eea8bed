// Package calendar coordinates the in-memory event collection of one session
// with a persistence Gateway.
//
// A Coordinator owns its collection exclusively. Every mutation is confirmed by
// the gateway before the collection changes, so a failed operation never leaves
// partial state behind. Each completed operation returns a Result and, when a
// Notifier is set, produces exactly one notification.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmynk/calendar/internal/models"
)

// Coordinator holds the events of one session.
type Coordinator struct {
	gw       Gateway
	notifier Notifier
	locks    *targetLocks

	mu     sync.RWMutex
	events []models.Event
	closed bool
}

// NewCoordinator creates a Coordinator with an empty collection. notifier may be nil.
func NewCoordinator(gw Gateway, notifier Notifier) *Coordinator {
	return &Coordinator{
		gw:       gw,
		notifier: notifier,
		locks:    newTargetLocks(),
	}
}

// Close tears the coordinator down. Responses that arrive afterwards are
// discarded and nothing more is notified.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.events = nil
}

// Events returns a copy of the current collection.
func (c *Coordinator) Events() []models.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Event, len(c.events))
	for i, e := range c.events {
		out[i] = e.Clone()
	}
	return out
}

// Event returns the event with the given id.
func (c *Coordinator) Event(id string) (models.Event, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.events[i].Clone(), true
	}
	return models.Event{}, false
}

// Pending reports whether an operation on t is in flight, and which.
func (c *Coordinator) Pending(t Target) (Op, bool) {
	return c.locks.pending(t)
}

// Load replaces the collection with the gateway's events. On failure the
// collection is left empty. A successful load is not notified.
func (c *Coordinator) Load(ctx context.Context) Result {
	if c.isClosed() {
		return failed(OpLoad, ErrClosed)
	}

	events, err := c.gw.ListEvents(ctx)
	if err != nil {
		return c.commit(failed(OpLoad, err), func() { c.events = nil })
	}

	slog.Debug("Events loaded", "count", len(events))
	return c.commit(Result{Op: OpLoad}, func() { c.events = cloneAll(events) })
}

// SaveEvent creates event when its ID is empty and updates it otherwise.
//
// A payload with RepeatNone is stored detached: whatever the gateway echoes,
// the committed event has no group identifier.
func (c *Coordinator) SaveEvent(ctx context.Context, event models.Event) Result {
	op := OpUpdate
	if event.ID == "" {
		op = OpCreate
	}
	if c.isClosed() {
		return failed(op, ErrClosed)
	}

	payload := event.Clone()
	detach := payload.Repeat.Type == models.RepeatNone
	if detach {
		payload.Repeat.GroupID = ""
	}
	if err := payload.Validate(); err != nil {
		return c.commit(failed(op, err), nil)
	}

	if op == OpUpdate {
		release, err := c.locks.acquire(ctx, EventTarget(payload.ID), op)
		if err != nil {
			return c.commit(failed(op, err), nil)
		}
		defer release()
	}

	var (
		saved models.Event
		err   error
	)
	if op == OpCreate {
		saved, err = c.gw.CreateEvent(ctx, payload)
		if err == nil && saved.ID == "" {
			err = fmt.Errorf("%w: created event has no id", ErrBadResponse)
		}
	} else {
		saved, err = c.gw.UpdateEvent(ctx, payload.ID, payload)
		if err == nil && saved.ID == "" {
			saved.ID = payload.ID
		}
	}
	if err != nil {
		slog.Warn("Failed to save event", "op", op, "id", payload.ID, "error", err)
		return c.commit(failed(op, err), nil)
	}

	if detach {
		saved.Repeat.Type = models.RepeatNone
		saved.Repeat.GroupID = ""
	}

	res := Result{Op: op, Events: []models.Event{saved.Clone()}}
	return c.commit(res, func() { c.upsert(saved) })
}

// DeleteEvent removes one event by id.
func (c *Coordinator) DeleteEvent(ctx context.Context, id string) Result {
	if c.isClosed() {
		return failed(OpDelete, ErrClosed)
	}
	if id == "" {
		return c.commit(failed(OpDelete, errors.New("event id is required")), nil)
	}

	release, err := c.locks.acquire(ctx, EventTarget(id), OpDelete)
	if err != nil {
		return c.commit(failed(OpDelete, err), nil)
	}
	defer release()

	if err := c.gw.DeleteEvent(ctx, id); err != nil {
		slog.Warn("Failed to delete event", "id", id, "error", err)
		return c.commit(failed(OpDelete, err), nil)
	}

	return c.commit(Result{Op: OpDelete}, func() { c.remove(func(e models.Event) bool { return e.ID == id }) })
}

// SaveRecurringEvents materializes a series in one gateway call. Instance ids
// and group ids are cleared before sending. The response is merged only when it
// is one complete series: as many events as were sent, distinct non-empty ids,
// and one shared non-empty group id.
func (c *Coordinator) SaveRecurringEvents(ctx context.Context, instances []models.Event) Result {
	if c.isClosed() {
		return failed(OpCreateSeries, ErrClosed)
	}
	if len(instances) == 0 {
		return c.commit(failed(OpCreateSeries, errors.New("no instances to create")), nil)
	}

	payload := make([]models.Event, len(instances))
	for i, inst := range instances {
		p := inst.Clone()
		p.ID = ""
		p.Repeat.GroupID = ""
		if err := p.Validate(); err != nil {
			return c.commit(failed(OpCreateSeries, fmt.Errorf("instance %d: %w", i, err)), nil)
		}
		payload[i] = p
	}

	created, err := c.gw.CreateEvents(ctx, payload)
	if err == nil {
		err = checkSeries(created, len(payload))
	}
	if err != nil {
		slog.Warn("Failed to create series", "count", len(payload), "error", err)
		return c.commit(failed(OpCreateSeries, err), nil)
	}

	slog.Info("Series created", "group_id", created[0].Repeat.GroupID, "count", len(created))
	res := Result{Op: OpCreateSeries, Events: cloneAll(created)}
	return c.commit(res, func() { c.events = append(c.events, cloneAll(created)...) })
}

// UpdateRecurringSeries applies patch to every member of the series. An empty
// patch fails without reaching the gateway. The
// returned series is authoritative: local members are replaced by id, members
// missing from the response are dropped, and new ones are appended.
func (c *Coordinator) UpdateRecurringSeries(ctx context.Context, groupID string, patch models.EventPatch) Result {
	if c.isClosed() {
		return failed(OpUpdateSeries, ErrClosed)
	}
	if groupID == "" {
		return c.commit(failed(OpUpdateSeries, ErrNoSeries), nil)
	}
	if patch.IsEmpty() {
		return c.commit(failed(OpUpdateSeries, ErrEmptyPatch), nil)
	}

	release, err := c.locks.acquire(ctx, SeriesTarget(groupID), OpUpdateSeries)
	if err != nil {
		return c.commit(failed(OpUpdateSeries, err), nil)
	}
	defer release()

	updated, err := c.gw.UpdateSeries(ctx, groupID, patch)
	if err == nil {
		err = checkMembers(updated, groupID)
	}
	if err != nil {
		slog.Warn("Failed to update series", "group_id", groupID, "error", err)
		return c.commit(failed(OpUpdateSeries, err), nil)
	}

	slog.Info("Series updated", "group_id", groupID, "count", len(updated))
	res := Result{Op: OpUpdateSeries, Events: cloneAll(updated)}
	return c.commit(res, func() { c.replaceSeries(groupID, updated) })
}

// DeleteRecurringSeries removes every member of the series.
func (c *Coordinator) DeleteRecurringSeries(ctx context.Context, groupID string) Result {
	if c.isClosed() {
		return failed(OpDeleteSeries, ErrClosed)
	}
	if groupID == "" {
		return c.commit(failed(OpDeleteSeries, ErrNoSeries), nil)
	}

	release, err := c.locks.acquire(ctx, SeriesTarget(groupID), OpDeleteSeries)
	if err != nil {
		return c.commit(failed(OpDeleteSeries, err), nil)
	}
	defer release()

	if err := c.gw.DeleteSeries(ctx, groupID); err != nil {
		slog.Warn("Failed to delete series", "group_id", groupID, "error", err)
		return c.commit(failed(OpDeleteSeries, err), nil)
	}

	slog.Info("Series deleted", "group_id", groupID)
	return c.commit(Result{Op: OpDeleteSeries}, func() {
		c.remove(func(e models.Event) bool { return e.Repeat.GroupID == groupID })
	})
}

// commit applies mutate under the write lock and notifies, unless the
// coordinator was closed while the operation was in flight.
func (c *Coordinator) commit(res Result, mutate func()) Result {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return failed(res.Op, ErrClosed)
	}
	if mutate != nil {
		mutate()
	}
	c.mu.Unlock()

	if msg := res.Message(); msg != "" && c.notifier != nil {
		c.notifier.Notify(msg, res.Severity())
	}
	return res
}

func (c *Coordinator) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// indexOf must be called with mu held.
func (c *Coordinator) indexOf(id string) int {
	for i := range c.events {
		if c.events[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Coordinator) upsert(e models.Event) {
	if i := c.indexOf(e.ID); i >= 0 {
		c.events[i] = e.Clone()
		return
	}
	c.events = append(c.events, e.Clone())
}

func (c *Coordinator) remove(match func(models.Event) bool) {
	kept := c.events[:0]
	for _, e := range c.events {
		if !match(e) {
			kept = append(kept, e)
		}
	}
	clear(c.events[len(kept):])
	c.events = kept
}

func (c *Coordinator) replaceSeries(groupID string, updated []models.Event) {
	byID := make(map[string]models.Event, len(updated))
	for _, e := range updated {
		byID[e.ID] = e
	}

	kept := make([]models.Event, 0, len(c.events))
	for _, e := range c.events {
		if fresh, ok := byID[e.ID]; ok {
			kept = append(kept, fresh.Clone())
			delete(byID, e.ID)
			continue
		}
		if e.Repeat.GroupID == groupID {
			continue
		}
		kept = append(kept, e)
	}
	for _, e := range updated {
		if _, pending := byID[e.ID]; pending {
			kept = append(kept, e.Clone())
		}
	}
	c.events = kept
}

// checkSeries validates a bulk-create response.
func checkSeries(events []models.Event, want int) error {
	if len(events) == 0 {
		return fmt.Errorf("%w: empty series", ErrBadResponse)
	}
	if len(events) != want {
		return fmt.Errorf("%w: got %d events, sent %d", ErrBadResponse, len(events), want)
	}
	groupID := events[0].Repeat.GroupID
	if groupID == "" {
		return fmt.Errorf("%w: series has no group id", ErrBadResponse)
	}
	return checkMembers(events, groupID)
}

// checkMembers requires distinct non-empty ids all tagged with groupID.
func checkMembers(events []models.Event, groupID string) error {
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e.ID == "" {
			return fmt.Errorf("%w: event without id", ErrBadResponse)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", ErrBadResponse, e.ID)
		}
		seen[e.ID] = struct{}{}
		if e.Repeat.GroupID != groupID {
			return fmt.Errorf("%w: event %s has group %q, want %q", ErrBadResponse, e.ID, e.Repeat.GroupID, groupID)
		}
	}
	return nil
}

func cloneAll(events []models.Event) []models.Event {
	out := make([]models.Event, len(events))
	for i, e := range events {
		out[i] = e.Clone()
	}
	return out
}
