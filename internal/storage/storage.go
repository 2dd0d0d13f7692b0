// Package storage uploads generated product images to an object store and
// returns the public URL they are served from.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/agrolink/agrolink_api/internal/config"
)

// ObjectStorage stores a blob under key and returns its public URL.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Backend() string
}

// New builds the backend selected by STORAGE_BACKEND. It returns nil, nil
// when storage is disabled; callers then keep only hosted image URLs.
func New(ctx context.Context, cfg *config.Config) (ObjectStorage, error) {
	switch cfg.Storage.Backend {
	case "":
		return nil, nil
	case "s3":
		s, err := NewS3Storage(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "minio":
		m, err := NewMinioStorage(ctx, cfg.Minio)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// ProductImageKey is the object key for a product's generated picture.
func ProductImageKey(productID, contentType string) string {
	ext := ".png"
	switch contentType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/webp":
		ext = ".webp"
	}
	return path.Join("products", productID, "image"+ext)
}

func joinURL(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, p := range parts {
		out += "/" + strings.Trim(p, "/")
	}
	return out
}
