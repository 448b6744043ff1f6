package storage

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"clinicdesk/models"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/asset"
	"github.com/cockroachdb/errors"
)

// CloudinaryConfig holds the account credentials.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// CloudinaryStore uploads public assets and serves their delivery URLs.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryStore creates a store from account credentials.
func NewCloudinaryStore(cfg CloudinaryConfig) (*CloudinaryStore, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("cloudinary credentials not set in configuration")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, errors.Wrap(err, "init cloudinary")
	}
	return &CloudinaryStore{cld: cld, folder: cfg.Folder}, nil
}

func (s *CloudinaryStore) Backend() string { return BackendCloudinary }

// Put uploads under the configured folder. Cloudinary derives the public id
// from key without its extension.
func (s *CloudinaryStore) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) (*Object, error) {
	publicID := strings.TrimSuffix(key, path.Ext(key))
	result, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       s.folder,
		ResourceType: resourceType(contentType),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "upload %s", key)
	}
	if result.PublicID == "" {
		if result.Error.Message != "" {
			return nil, errors.Newf("upload %s: %s", key, result.Error.Message)
		}
		return nil, errors.Newf("upload %s: no public id returned", key)
	}
	return &Object{Key: result.PublicID, URL: result.SecureURL, Backend: BackendCloudinary}, nil
}

// getAsset returns an asset builder matching how the file was uploaded.
func (s *CloudinaryStore) getAsset(mimeType, publicID string) (*asset.Asset, error) {
	switch resourceType(mimeType) {
	case "image":
		return s.cld.Image(publicID)
	case "video":
		return s.cld.Video(publicID)
	default:
		return s.cld.File(publicID)
	}
}

// URL prefers the delivery URL recorded at upload time.
func (s *CloudinaryStore) URL(_ context.Context, m models.Media, _ time.Duration) (string, error) {
	if m.URL != "" {
		return m.URL, nil
	}
	a, err := s.getAsset(m.MimeType, m.ObjectKey)
	if err != nil {
		return "", errors.Wrap(err, "build asset")
	}
	u, err := a.String()
	if err != nil {
		return "", errors.Wrap(err, "render asset url")
	}
	return u, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, m models.Media) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     m.ObjectKey,
		ResourceType: resourceType(m.MimeType),
	})
	if err != nil {
		return errors.Wrapf(err, "delete %s", m.ObjectKey)
	}
	return nil
}
