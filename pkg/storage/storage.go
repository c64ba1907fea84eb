// Package storage defines the image store used for product pictures.
// Backends live in the gcs and s3 subpackages.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Object is an uploaded blob.
type Object struct {
	Key string
	URL string
}

// ImageStore uploads and removes product images.
type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (Object, error)
	Delete(ctx context.Context, key string) error
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// IsAllowedImageType reports whether contentType is an accepted product image.
func IsAllowedImageType(contentType string) bool {
	_, ok := imageExtensions[normalizeContentType(contentType)]
	return ok
}

// ObjectKey builds "<prefix>/<productID>/<random><ext>".
func ObjectKey(prefix string, productID uuid.UUID, contentType string) (string, error) {
	ext, ok := imageExtensions[normalizeContentType(contentType)]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", contentType)
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	return path.Join(prefix, productID.String(), uuid.NewString()+ext), nil
}

func normalizeContentType(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}
