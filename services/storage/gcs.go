package storage

import (
	"context"
	"io"
	"time"

	"clinicdesk/models"

	gcs "cloud.google.com/go/storage"
	"github.com/cockroachdb/errors"
	"google.golang.org/api/option"
)

// GCSConfig points at a Firebase/GCS bucket. CredentialsFile is a service
// account JSON; when empty the client falls back to application default
// credentials.
type GCSConfig struct {
	Bucket          string
	CredentialsFile string
}

// GCSStore keeps objects private and serves V4 signed URLs.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore creates a client for the configured bucket.
func NewGCSStore(ctx context.Context, cfg GCSConfig) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs bucket not set in configuration")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "init gcs client")
	}
	return &GCSStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *GCSStore) Backend() string { return BackendGCS }

func (s *GCSStore) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) (*Object, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return nil, errors.Wrapf(err, "upload %s", key)
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrapf(err, "finish upload %s", key)
	}
	return &Object{Key: key, Backend: BackendGCS}, nil
}

// URL signs with the client's service account credentials.
func (s *GCSStore) URL(_ context.Context, m models.Media, expires time.Duration) (string, error) {
	u, err := s.client.Bucket(s.bucket).SignedURL(m.ObjectKey, signedGetOptions(m, expires, time.Now()))
	if err != nil {
		return "", errors.Wrapf(err, "sign %s", m.ObjectKey)
	}
	return u, nil
}

func signedGetOptions(m models.Media, expires time.Duration, now time.Time) *gcs.SignedURLOptions {
	return &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  "GET",
		Expires: now.Add(expires),
		QueryParameters: map[string][]string{
			"response-content-disposition": {"inline; filename=\"" + m.Filename + "\""},
		},
	}
}

func (s *GCSStore) Delete(ctx context.Context, m models.Media) error {
	err := s.client.Bucket(s.bucket).Object(m.ObjectKey).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return errors.Wrapf(err, "delete %s", m.ObjectKey)
	}
	return nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
