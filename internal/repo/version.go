package repo

import (
	"context"
	"strconv"
	"strings"

	"lune/internal/kv"
)

// Version returns the data version; absent or malformed reads as 0.
func (r *Repo) Version(ctx context.Context) int {
	raw, ok, err := r.Store.Get(ctx, kv.KeyVersion)
	if err != nil {
		r.Log.Error().Err(err).Msg("failed to read data version")
		return 0
	}
	if !ok {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		r.Log.Warn().Str("value", raw).Msg("malformed data version, treating as 0")
		return 0
	}
	return v
}

// Bump increments the data version by one.
func (r *Repo) Bump(ctx context.Context) error {
	unlock := r.lock(kv.KeyVersion)
	defer unlock()
	next := r.Version(ctx) + 1
	return r.Store.Set(ctx, kv.KeyVersion, strconv.Itoa(next))
}
