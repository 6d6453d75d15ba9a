package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineStoreEncodesDataURL(t *testing.T) {
	store := NewInlineStore()

	result, err := store.UploadImage(context.Background(), []byte("fake-png-bytes"), "image/png", "user-1")
	require.NoError(t, err)

	assert.Equal(t, "data:image/png;base64,ZmFrZS1wbmctYnl0ZXM=", result.URL)
	assert.Equal(t, int64(14), result.Size)
	assert.Empty(t, result.Key)
}

func TestInlineStoreRequiresContentType(t *testing.T) {
	store := NewInlineStore()
	_, err := store.UploadImage(context.Background(), []byte("x"), "", "user-1")
	assert.Error(t, err)
}

func TestInlineStoreDeleteIsNoOp(t *testing.T) {
	store := NewInlineStore()
	assert.NoError(t, store.DeleteImage(context.Background(), "data:image/png;base64,AA=="))
}
