package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"lune/internal/domain"
	"lune/internal/kv"
)

const defaultLimit = 500

// Writer appends mutation events to a capped log kept under kv.KeyEvents.
type Writer struct {
	Store kv.Store
	Now   func() time.Time
	Limit int

	mu sync.Mutex
}

type EventPayload map[string]any

func (w *Writer) now() time.Time {
	if w.Now == nil {
		return time.Now()
	}
	return w.Now()
}

func (w *Writer) limit() int {
	if w.Limit <= 0 {
		return defaultLimit
	}
	return w.Limit
}

func (w *Writer) Append(ctx context.Context, evtType, entityKind, entityID string, payload EventPayload) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	log, err := w.read(ctx)
	if err != nil {
		return err
	}
	log = append(log, domain.Event{
		ID:         uuid.NewString(),
		TS:         w.now().UTC().Format(time.RFC3339),
		Type:       evtType,
		EntityKind: entityKind,
		EntityID:   entityID,
		Payload:    payload,
	})
	if over := len(log) - w.limit(); over > 0 {
		log = log[over:]
	}
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}
	return w.Store.Set(ctx, kv.KeyEvents, string(data))
}

// Filter narrows Latest results; empty fields match everything.
type Filter struct {
	Type       string
	EntityKind string
	EntityID   string
}

// Latest returns up to n matching events, newest first.
func (w *Writer) Latest(ctx context.Context, n int, f Filter) ([]domain.Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	log, err := w.read(ctx)
	if err != nil {
		return nil, err
	}
	var res []domain.Event
	for i := len(log) - 1; i >= 0; i-- {
		e := log[i]
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		if f.EntityKind != "" && e.EntityKind != f.EntityKind {
			continue
		}
		if f.EntityID != "" && e.EntityID != f.EntityID {
			continue
		}
		res = append(res, e)
		if n > 0 && len(res) == n {
			break
		}
	}
	return res, nil
}

// read treats a malformed log as empty; the next append rewrites it.
func (w *Writer) read(ctx context.Context) ([]domain.Event, error) {
	raw, ok, err := w.Store.Get(ctx, kv.KeyEvents)
	if err != nil || !ok {
		return nil, err
	}
	var log []domain.Event
	if err := json.Unmarshal([]byte(raw), &log); err != nil {
		return nil, nil
	}
	return log, nil
}
