// Package backup copies the app keyspace to and from a single JSON file.
// Files may carry comments and trailing commas so they can be hand-edited.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"

	"lune/internal/kv"
)

// FormatVersion is the current backup document version.
const FormatVersion = 1

const filePerms = 0o600

var errUnsupportedVersion = errors.New("unsupported backup version")

// Keys is the set of keys a backup carries.
var Keys = append(append([]string{}, kv.AppKeys...), kv.KeyMoodColors, kv.KeyFirstLaunch)

// Document is the on-disk backup. Values are the raw stored strings.
type Document struct {
	Version    int               `json:"version"`
	ExportedAt string            `json:"exported_at"`
	Data       map[string]string `json:"data"`
}

// Export writes every backup key present in store to path atomically and
// returns the number of keys written. Keys outside the backup set are left
// out.
func Export(ctx context.Context, store kv.Store, path string, now time.Time) (int, error) {
	doc := Document{
		Version:    FormatVersion,
		ExportedAt: now.UTC().Format(time.RFC3339),
		Data:       map[string]string{},
	}
	present, err := store.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("list keys: %w", err)
	}
	for _, key := range present {
		if !slices.Contains(Keys, key) {
			continue
		}
		v, ok, err := store.Get(ctx, key)
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", key, err)
		}
		if ok {
			doc.Data[key] = v
		}
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return 0, err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(append(b, '\n'))); err != nil {
		return 0, fmt.Errorf("failed to write backup: %w", err)
	}
	if err := os.Chmod(path, filePerms); err != nil {
		return 0, fmt.Errorf("failed to set backup permissions: %w", err)
	}
	return len(doc.Data), nil
}

// Parse reads a backup document, accepting JSON with comments.
func Parse(data []byte) (Document, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Document{}, fmt.Errorf("invalid JSONC: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(standardized, &doc); err != nil {
		return Document{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if doc.Version != FormatVersion {
		return Document{}, fmt.Errorf("%w: %d", errUnsupportedVersion, doc.Version)
	}
	return doc, nil
}

// Import loads path into store. With replace set, every backup key is
// cleared first so keys absent from the file do not survive. Keys outside
// the backup set are ignored. It returns the number of keys written.
func Import(ctx context.Context, store kv.Store, path string, replace bool) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	doc, err := Parse(raw)
	if err != nil {
		return 0, fmt.Errorf("backup %s: %w", path, err)
	}
	if replace {
		if err := store.MultiRemove(ctx, Keys...); err != nil {
			return 0, fmt.Errorf("clear before import: %w", err)
		}
	}
	n := 0
	for _, key := range Keys {
		v, ok := doc.Data[key]
		if !ok {
			continue
		}
		if err := store.Set(ctx, key, v); err != nil {
			return n, fmt.Errorf("write %s: %w", key, err)
		}
		n++
	}
	return n, nil
}
