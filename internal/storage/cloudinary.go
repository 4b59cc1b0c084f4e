package storage

import (
	"bytes"   // Request bodies
	"context" // Context for cancellation
	"errors"  // Sentinel errors
	"fmt"     // Error wrapping

	"artisanhub/internal/metrics" // Prometheus collectors

	"github.com/cloudinary/cloudinary-go/v2"              // Cloudinary SDK
	"github.com/cloudinary/cloudinary-go/v2/api"          // Cloudinary API helpers
	"github.com/cloudinary/cloudinary-go/v2/api/uploader" // Cloudinary upload API
)

// CloudinaryStore uploads images into a Cloudinary folder
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryStore builds a store from a cloudinary:// URL, or from explicit credentials when url is empty
func NewCloudinaryStore(url, cloudName, apiKey, apiSecret, folder string) (*CloudinaryStore, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	if url != "" {
		cld, err = cloudinary.NewFromURL(url)
	} else {
		cld, err = cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	}
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true // Always hand out https URLs
	return &CloudinaryStore{cld: cld, folder: folder}, nil
}

// Backend names the store for logs and metrics
func (s *CloudinaryStore) Backend() string { return "cloudinary" }

// Save uploads data and returns its secure URL
func (s *CloudinaryStore) Save(ctx context.Context, filename string, data []byte) (StoredImage, error) {
	if _, _, err := NormalizeExt(filename); err != nil {
		return StoredImage{}, err
	}
	resp, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     NewObjectName(),
		ResourceType: "image",
		Overwrite:    api.Bool(false), // Public IDs are unique
	})
	if err != nil {
		return StoredImage{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return StoredImage{}, errors.New("cloudinary upload: " + resp.Error.Message)
	}
	metrics.ImagesStored.WithLabelValues(s.Backend()).Inc()
	return StoredImage{URL: resp.SecureURL, PublicID: resp.PublicID}, nil // PublicID includes the folder
}

// Delete destroys the asset identified by publicID
func (s *CloudinaryStore) Delete(ctx context.Context, publicID string) error {
	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if resp.Error.Message != "" {
		return errors.New("cloudinary destroy: " + resp.Error.Message)
	}
	return nil
}
