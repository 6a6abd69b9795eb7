package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreUpload(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	body := "granule payload"
	ctype, err := store.Upload(context.Background(),
		strings.NewReader(body), "staging/req-1/out.txt", int64(len(body)), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", ctype)

	data, err := os.ReadFile(filepath.Join(store.Root, "staging/req-1/out.txt"))
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
}

func TestLocalStoreSniffsContentType(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	body := `{"kind":"result"}`
	ctype, err := store.Upload(context.Background(),
		strings.NewReader(body), "staging/out.json", int64(len(body)), "")
	require.NoError(t, err)
	assert.NotEmpty(t, ctype)
}

func TestLocalStoreLengthMismatch(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	_, err := store.Upload(context.Background(),
		strings.NewReader("short"), "staging/out.bin", 100, "application/octet-stream")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 100")

	_, statErr := os.Stat(filepath.Join(store.Root, "staging/out.bin"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	_, err := store.Upload(context.Background(),
		strings.NewReader("x"), "../../etc/passwd", 1, "")
	require.Error(t, err)
}

func TestLocalStoreCanceledContext(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Upload(ctx, strings.NewReader("x"), "staging/out", 1, "")
	require.Error(t, err)
}
