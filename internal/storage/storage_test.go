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

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()

	store, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/files")
	require.NoError(t, err)
	return store
}

func TestLocalStorage_Upload(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	url, err := store.Upload(ctx, "evidence/2025/check.jpg", strings.NewReader("jpeg bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/evidence/2025/check.jpg", url)

	data, err := os.ReadFile(filepath.Join(store.basePath, "evidence", "2025", "check.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
}

func TestLocalStorage_Exists(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "evidence/missing.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Upload(ctx, "evidence/present.jpg", strings.NewReader("x"), "image/jpeg")
	require.NoError(t, err)

	exists, err = store.Exists(ctx, "evidence/present.jpg")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalStorage_Delete(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.Upload(ctx, "evidence/gone.jpg", strings.NewReader("x"), "image/jpeg")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "evidence/gone.jpg"))

	exists, err := store.Exists(ctx, "evidence/gone.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting a missing key is not an error.
	assert.NoError(t, store.Delete(ctx, "evidence/gone.jpg"))
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.Upload(ctx, "../outside.jpg", strings.NewReader("x"), "image/jpeg")
	assert.Error(t, err)

	_, err = store.Exists(ctx, "../../etc/passwd")
	assert.Error(t, err)

	assert.Error(t, store.Delete(ctx, "../outside.jpg"))
}

func TestLocalStorage_GetURL(t *testing.T) {
	store := newTestStorage(t)
	assert.Equal(t, "http://localhost:8080/files/evidence/a.jpg", store.GetURL("evidence/a.jpg"))
}
