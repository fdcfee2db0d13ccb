package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorageSaveDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()

	url, err := m.Save(ctx, "posts/a.jpg", []byte("img"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "memory://posts/a.jpg", url)
	assert.True(t, m.Has("posts/a.jpg"))

	require.NoError(t, m.Delete(ctx, "posts/a.jpg"))
	assert.False(t, m.Has("posts/a.jpg"))
}

func TestMemoryStorageFailures(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	m.FailSave = errors.New("down")

	_, err := m.Save(ctx, "k", nil, "image/png")
	assert.EqualError(t, err, "down")
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, "png", ExtensionFor("image/png"))
	assert.Equal(t, "jpg", ExtensionFor("application/octet-stream"))
}

func TestNewS3StorageDefaultsPublicURL(t *testing.T) {
	s, err := NewS3Storage(context.Background(), S3Options{
		Bucket: "wild", Region: "eu-west-1", AccessKey: "a", SecretKey: "b",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://wild.s3.eu-west-1.amazonaws.com", s.publicURL)
}
