package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ok, err := store.Exists(ctx, "invoices/a.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Get(ctx, "invoices/a.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "invoices/a.pdf", []byte("%PDF-1.3"), "application/pdf"))
	ok, err = store.Exists(ctx, "invoices/a.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := store.Get(ctx, "invoices/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(data))

	require.NoError(t, store.Delete(ctx, "invoices/a.pdf"))
	require.NoError(t, store.Delete(ctx, "invoices/a.pdf"))
	ok, _ = store.Exists(ctx, "invoices/a.pdf")
	assert.False(t, ok)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape.pdf", "/etc/passwd", "a/../../b"} {
		err := store.Put(context.Background(), key, []byte("x"), "")
		assert.Error(t, err, key)
	}
}

func TestEncryptedStoreSealsAtRest(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	local, err := NewLocalStore(root)
	require.NoError(t, err)

	enc, err := NewEncryptedStore(local, "admin-key")
	require.NoError(t, err)

	plain := []byte("%PDF-1.3 invoice body")
	require.NoError(t, enc.Put(ctx, "invoices/b.pdf", plain, "application/pdf"))

	raw, err := os.ReadFile(filepath.Join(root, "invoices", "b.pdf"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "invoice body")

	got, err := enc.Get(ctx, "invoices/b.pdf")
	require.NoError(t, err)
	assert.Equal(t, plain, got)

	other, err := NewEncryptedStore(local, "different-key")
	require.NoError(t, err)
	_, err = other.Get(ctx, "invoices/b.pdf")
	assert.Error(t, err)
}

func TestEncryptedStoreBindsKey(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	enc, err := NewEncryptedStore(mem, "admin-key")
	require.NoError(t, err)

	require.NoError(t, enc.Put(ctx, "invoices/one.pdf", []byte("one"), ""))
	sealed, err := mem.Get(ctx, "invoices/one.pdf")
	require.NoError(t, err)
	require.NoError(t, mem.Put(ctx, "invoices/two.pdf", sealed, ""))

	_, err = enc.Get(ctx, "invoices/two.pdf")
	assert.Error(t, err)
}

func TestNewBlobStoreUnknownBackend(t *testing.T) {
	_, err := NewBlobStore(context.Background(), Options{Backend: "ftp"})
	assert.Error(t, err)
}
