package storage

import (
	types "GridForge/pkg"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	base := t.TempDir()
	st, err := NewLocalStorage(types.LocalConfig{BasePath: base})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, st.Upload(ctx, "grids", "2026/out.mp4", strings.NewReader("composite")))

	data, err := os.ReadFile(filepath.Join(base, "grids", "2026", "out.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "composite", string(data))

	entries, err := os.ReadDir(filepath.Join(base, "grids", "2026"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary upload file must not be left behind")
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	st, err := NewLocalStorage(types.LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)

	err = st.Upload(context.Background(), "", "../escape.mp4", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestLocalStorage_RequiresBasePath(t *testing.T) {
	_, err := NewLocalStorage(types.LocalConfig{})
	assert.Error(t, err)
}

func TestNewStorage(t *testing.T) {
	st, err := NewStorage(types.StorageConfig{Type: "none"})
	require.NoError(t, err)
	assert.Nil(t, st)

	st, err = NewStorage(types.StorageConfig{Type: "local", Local: types.LocalConfig{BasePath: t.TempDir()}})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, st)

	_, err = NewStorage(types.StorageConfig{Type: "gcloud"})
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "video/mp4", contentType("grids/out.mp4"))
	assert.Equal(t, "application/octet-stream", contentType("grids/out"))
}
