package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrolink/agrolink_api/internal/config"
)

func TestProductImageKey(t *testing.T) {
	assert.Equal(t, "products/p1/image.png", ProductImageKey("p1", "image/png"))
	assert.Equal(t, "products/p1/image.jpg", ProductImageKey("p1", "image/jpeg"))
	assert.Equal(t, "products/p1/image.png", ProductImageKey("p1", "application/octet-stream"))
}

func TestS3ObjectURL(t *testing.T) {
	key := "products/p1/image.png"
	assert.Equal(t, "https://b.s3.eu-central-1.amazonaws.com/products/p1/image.png",
		s3ObjectURL(config.S3Config{Bucket: "b", Region: "eu-central-1"}, key))
	assert.Equal(t, "http://localstack:4566/b/products/p1/image.png",
		s3ObjectURL(config.S3Config{Bucket: "b", Endpoint: "http://localstack:4566/"}, key))
	assert.Equal(t, "https://cdn.agrolink.et/products/p1/image.png",
		s3ObjectURL(config.S3Config{Bucket: "b", PublicURL: "https://cdn.agrolink.et"}, key))
}

func TestMinioObjectURL(t *testing.T) {
	key := "products/p1/image.png"
	assert.Equal(t, "http://minio:9000/agro/products/p1/image.png",
		minioObjectURL(config.MinioConfig{Endpoint: "minio:9000", Bucket: "agro"}, key))
	assert.Equal(t, "https://minio:9000/agro/products/p1/image.png",
		minioObjectURL(config.MinioConfig{Endpoint: "minio:9000", Bucket: "agro", UseSSL: true}, key))
}

func TestNew_Disabled(t *testing.T) {
	s, err := New(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = New(context.Background(), &config.Config{Storage: config.StorageConfig{Backend: "gcs"}})
	assert.Error(t, err)

	_, err = NewMinioStorage(context.Background(), config.MinioConfig{})
	assert.Error(t, err)
}
