// Package repo implements the local record store: the task repository, the
// mood and journal ledgers, the version counter and app settings, all kept
// as JSON documents in a kv.Store.
//
// Each logical collection lives under one key and is rewritten whole on
// every mutation. Mutations on the same key are serialized in-process so
// concurrent read-modify-write cycles cannot clobber each other.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"lune/internal/domain"
	"lune/internal/events"
	"lune/internal/kv"
)

var ErrNotFound = errors.New("not found")

// DefaultVerifyDelay is the pause before a mood write is read back.
const DefaultVerifyDelay = 100 * time.Millisecond

type Repo struct {
	Store       kv.Store
	Events      *events.Writer
	Log         zerolog.Logger
	Now         func() time.Time
	VerifyDelay time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(store kv.Store, log zerolog.Logger) *Repo {
	return &Repo{
		Store:       store,
		Events:      &events.Writer{Store: store},
		Log:         log,
		Now:         time.Now,
		VerifyDelay: DefaultVerifyDelay,
	}
}

func (r *Repo) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Today is the current local calendar date.
func (r *Repo) Today() string {
	return domain.FormatDate(r.now())
}

// lock serializes mutations of one collection key.
func (r *Repo) lock(key string) func() {
	r.mu.Lock()
	if r.locks == nil {
		r.locks = map[string]*sync.Mutex{}
	}
	l, ok := r.locks[key]
	if !ok {
		l = &sync.Mutex{}
		r.locks[key] = l
	}
	r.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// readJSON decodes key into out. A missing key leaves out untouched; a
// malformed value is logged and reported as found=false so callers fall
// back to an empty collection. Only medium failures are returned.
func (r *Repo) readJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, ok, err := r.Store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	// Decode into a fresh value so a type error half way through cannot
	// leave partial records in out.
	fresh := reflect.New(reflect.TypeOf(out).Elem())
	if err := json.Unmarshal([]byte(raw), fresh.Interface()); err != nil {
		r.Log.Warn().Str("key", key).Err(err).Msg("malformed stored data, treating as empty")
		return false, nil
	}
	reflect.ValueOf(out).Elem().Set(fresh.Elem())
	return true, nil
}

func (r *Repo) writeJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.Store.Set(ctx, key, string(b)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// readObject loads a date-keyed ledger. JSON null, arrays and scalars all
// decode as an empty ledger.
func readObject[V any](ctx context.Context, r *Repo, key string) (map[string]V, error) {
	var m map[string]V
	if _, err := r.readJSON(ctx, key, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]V{}
	}
	return m, nil
}

// committed runs the bookkeeping shared by every successful mutation.
func (r *Repo) committed(ctx context.Context, evtType, entityKind, entityID string, payload events.EventPayload) {
	if err := r.Bump(ctx); err != nil {
		r.Log.Error().Err(err).Str("event", evtType).Msg("failed to bump data version")
	}
	if r.Events == nil {
		return
	}
	if err := r.Events.Append(ctx, evtType, entityKind, entityID, payload); err != nil {
		r.Log.Warn().Err(err).Str("event", evtType).Msg("failed to append event")
	}
}

// ClearAll removes every app key in one multi-key delete.
func (r *Repo) ClearAll(ctx context.Context) error {
	if err := r.Store.MultiRemove(ctx, kv.AppKeys...); err != nil {
		return fmt.Errorf("clear all data: %w", err)
	}
	r.Log.Info().Int("keys", len(kv.AppKeys)).Msg("cleared all data")
	return nil
}
