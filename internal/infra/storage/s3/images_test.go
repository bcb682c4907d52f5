package s3

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeUsesExtension(t *testing.T) {
	img := describe("http://localhost:9000/", "fleet", "vehicles/abc.JPG", "image/jpeg")
	assert.Equal(t, "http://localhost:9000/fleet/vehicles/abc.JPG", img.URL)
	assert.Equal(t, "jpeg", img.Format)
	assert.Equal(t, "vehicles/abc", img.PublicID)
}

func TestDescribeFallsBackToContentType(t *testing.T) {
	img := describe("https://cdn.example.com", "fleet", "vehicles/abc", "image/webp; charset=binary")
	assert.Equal(t, "webp", img.Format)
	assert.Equal(t, "vehicles/abc", img.PublicID)
}

func TestHostOnly(t *testing.T) {
	assert.Equal(t, "minio:9000", hostOnly("http://minio:9000"))
	assert.Equal(t, "minio:9000", hostOnly("minio:9000"))
}

func TestNewImageHostValidation(t *testing.T) {
	_, err := NewImageHost(Config{Bucket: "fleet"}, nil)
	assert.Error(t, err)
	_, err = NewImageHost(Config{Endpoint: "localhost:9000"}, nil)
	assert.Error(t, err)

	host, err := NewImageHost(Config{Endpoint: "http://localhost:9000", Bucket: "fleet"}, nil)
	require.NoError(t, err)
	_, err = host.Upload(context.Background(), "  ", "image/png", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestNoopImageHost(t *testing.T) {
	_, err := NoopImageHost{}.Upload(context.Background(), "a.png", "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNotConfigured)
}
