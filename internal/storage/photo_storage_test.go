package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhotoStorage_SaveAndDelete(t *testing.T) {
	root := t.TempDir()
	s, err := NewPhotoStorage(root, 1)
	require.NoError(t, err)

	listingID := uuid.New()
	path, size, err := s.Save(context.Background(), listingID, "../../Photo.PNG", bytes.NewReader([]byte("png-bytes")))
	require.NoError(t, err)

	assert.Equal(t, int64(9), size)
	assert.True(t, strings.HasPrefix(path, listingID.String()+string(filepath.Separator)))
	assert.True(t, strings.HasSuffix(path, ".png"))

	_, err = os.Stat(filepath.Join(root, path))
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), path))
	_, err = os.Stat(filepath.Join(root, path))
	assert.True(t, os.IsNotExist(err))

	// повторное удаление не ошибка
	assert.NoError(t, s.Delete(context.Background(), path))
}

func TestPhotoStorage_RejectsOversizedFile(t *testing.T) {
	root := t.TempDir()
	s, err := NewPhotoStorage(root, 1)
	require.NoError(t, err)

	big := bytes.Repeat([]byte("x"), int(s.MaxUploadBytes())+1)
	_, _, err = s.Save(context.Background(), uuid.New(), "big.jpg", bytes.NewReader(big))
	assert.Error(t, err)
}

func TestPhotoStorage_CancelledContext(t *testing.T) {
	s, err := NewPhotoStorage(t.TempDir(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = s.Save(ctx, uuid.New(), "a.jpg", bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, context.Canceled)
}
