package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lune/internal/config"
)

func TestOpenDefaultsToSQLite(t *testing.T) {
	ws := t.TempDir()
	a, err := Open(context.Background(), Options{Workspace: ws, Console: &bytes.Buffer{}})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	_, err = a.Repo.AddTask(context.Background(), "Buy milk", "", "2024-01-05", false)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(ws, ".lune", "lune.db"))
	assert.Nil(t, a.Engine.Reflection)
	assert.False(t, a.Entitlement.Initialized())
}

func TestOpenFileBackendFromConfig(t *testing.T) {
	ws := t.TempDir()
	doc := "store:\n  backend: file\nledger:\n  verify_delay: 0s\nreflection:\n  url: https://demo.supabase.co\n  anon_key: anon-key-0123456789\n"
	require.NoError(t, os.WriteFile(filepath.Join(ws, config.FileName), []byte(doc), 0o644))

	a, err := Open(context.Background(), Options{Workspace: ws, Console: &bytes.Buffer{}})
	require.NoError(t, err)

	ctx := context.Background()
	m, ok, err := a.Repo.SetMoodForDate(ctx, "2024-01-10", 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, m)
	assert.NotNil(t, a.Engine.Reflection)
	require.NoError(t, a.Close())

	assert.FileExists(t, filepath.Join(ws, ".lune", FileStoreName))
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(ws, config.FileName), []byte("store:\n  backend: tape\n"), 0o644))
	_, err := Open(context.Background(), Options{Workspace: ws, Console: &bytes.Buffer{}})
	require.Error(t, err)
}
