package storage

import (
	"context"       // Context for cancellation
	"errors"        // Sentinel errors
	"fmt"           // Error wrapping
	"os"            // File system access
	"path/filepath" // Path handling
	"strings"       // String manipulation

	"artisanhub/internal/metrics" // Prometheus collectors
)

// PublicPrefix is the URL path the upload directory is served under
const PublicPrefix = "/uploads/"

// LocalStore writes images into a directory served as static files
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { // Create the upload directory
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir is the directory images are written to
func (s *LocalStore) Dir() string { return s.dir }

// Backend names the store for logs and metrics
func (s *LocalStore) Backend() string { return "local" }

// Save writes data under a generated name keeping the original extension
func (s *LocalStore) Save(ctx context.Context, filename string, data []byte) (StoredImage, error) {
	ext, _, err := NormalizeExt(filename)
	if err != nil {
		return StoredImage{}, err
	}
	if err := ctx.Err(); err != nil {
		return StoredImage{}, err
	}
	name := NewObjectName() + ext // Uploaded names are never trusted
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return StoredImage{}, fmt.Errorf("write image: %w", err)
	}
	metrics.ImagesStored.WithLabelValues(s.Backend()).Inc()
	return StoredImage{URL: PublicPrefix + name, PublicID: name}, nil
}

// Delete removes a previously saved file; missing files are not an error
func (s *LocalStore) Delete(_ context.Context, publicID string) error {
	name := filepath.Base(strings.TrimPrefix(publicID, PublicPrefix)) // Stay inside dir
	if name == "." || name == string(filepath.Separator) {
		return fmt.Errorf("invalid image reference %q", publicID)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
