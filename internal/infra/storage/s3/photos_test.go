package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPhotoStoreValidatesConfig(t *testing.T) {
	_, err := NewPhotoStore(Config{Bucket: "cars"}, nil)
	assert.ErrorIs(t, err, ErrEndpointRequired)
	_, err = NewPhotoStore(Config{Endpoint: "localhost:9000"}, nil)
	assert.ErrorIs(t, err, ErrBucketRequired)
}

func TestObjectURL(t *testing.T) {
	store, err := NewPhotoStore(Config{
		Endpoint:       "http://minio:9000",
		PublicEndpoint: "https://cdn.example.lk/",
		Bucket:         "car-photos",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.lk/car-photos/cars/axio/1.jpg", store.objectURL("/cars/axio/1.jpg"))
}

func TestPublicBase(t *testing.T) {
	assert.Equal(t, "http://localhost:9000", publicBase("localhost:9000", "", false))
	assert.Equal(t, "https://s3.example.lk", publicBase("s3.example.lk", "", true))
	assert.Equal(t, "http://minio:9000", publicBase("http://minio:9000/", "", true))
}

func TestParseEndpoint(t *testing.T) {
	assert.Equal(t, "minio:9000", parseEndpoint("http://minio:9000"))
	assert.Equal(t, "minio:9000", parseEndpoint("minio:9000"))
}
