// Package kv defines the key-value medium every ledger persists into and
// ships the concrete media: SQLite (default), Redis, a JSON file and memory.
//
// Values are opaque strings; callers store JSON. Reading an absent key is
// not an error.
package kv

import (
	"context"
	"errors"
	"fmt"
)

// Well-known keys shared with the original mobile encoding.
const (
	KeyTasks                = "@tasks"
	KeyMoods                = "@dailyMoods"
	KeyJournal              = "@journalEntries"
	KeyVersion              = "@taskDataVersion"
	KeyTheme                = "@selectedTheme"
	KeyMoodColors           = "@moodColors"
	KeyFirstLaunch          = "@firstLaunch"
	KeyChatMessages         = "@chatMessages"
	KeyUserName             = "@userName"
	KeyNotificationsEnabled = "@notificationsEnabled"
	KeyEvents               = "@events"
)

// AppKeys lists the keys removed by a full data clear.
var AppKeys = []string{
	KeyTasks,
	KeyMoods,
	KeyJournal,
	KeyVersion,
	KeyUserName,
	KeyNotificationsEnabled,
	KeyTheme,
	KeyChatMessages,
	KeyEvents,
}

// ErrClosed is returned by media used after Close.
var ErrClosed = errors.New("kv store closed")

// Store is the persistence medium.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	MultiRemove(ctx context.Context, keys ...string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Options select and configure a medium.
type Options struct {
	Backend   string
	Workspace string
	RedisAddr string
	RedisDB   int
	Namespace string
	FilePath  string
}

// Open builds the medium named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendSQLite:
		return OpenSQLite(ctx, opts.Workspace)
	case BackendRedis:
		return NewRedis(opts.RedisAddr, opts.RedisDB, opts.Namespace), nil
	case BackendFile:
		return OpenFile(opts.FilePath)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
