// Package storage persists product images either on Cloudinary or on local disk.
package storage

import (
	"context"       // Context for cancellation
	"errors"        // Sentinel errors
	"path/filepath" // Path handling
	"strings"       // String manipulation

	"github.com/google/uuid" // Object names
)

// ErrUnsupportedFormat is returned for files outside AllowedExtensions
var ErrUnsupportedFormat = errors.New("unsupported image format")

// AllowedExtensions are the image formats accepted for upload
var AllowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// StoredImage points at a saved image
type StoredImage struct {
	URL      string // Public URL or /uploads/<file>
	PublicID string // Backend reference used for deletion
}

// ImageStore saves and removes images
type ImageStore interface {
	Save(ctx context.Context, filename string, data []byte) (StoredImage, error)
	Delete(ctx context.Context, publicID string) error
	Backend() string
}

// NormalizeExt validates the file extension and returns it lowercased with its MIME type
func NormalizeExt(filename string) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	mime, ok := AllowedExtensions[ext]
	if !ok {
		return "", "", ErrUnsupportedFormat
	}
	return ext, mime, nil
}

// NewObjectName returns a collision-free base name for an upload
func NewObjectName() string {
	return uuid.NewString()
}
