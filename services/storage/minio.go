package storage

import (
	"context"
	"io"
	"net/url"
	"time"

	"clinicdesk/models"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinioConfig holds the S3-compatible endpoint credentials.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioStore keeps objects private and hands out presigned GET links.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects and creates the bucket when missing.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init minio client")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "check bucket %s", cfg.Bucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, "create bucket %s", cfg.Bucket)
		}
		utils.GetLogger().Info("Created media bucket", zap.String("bucket", cfg.Bucket))
	}
	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioStore) Backend() string { return BackendMinio }

func (s *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*Object, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, errors.Wrapf(err, "upload %s", key)
	}
	return &Object{Key: key, Backend: BackendMinio}, nil
}

func (s *MinioStore) URL(ctx context.Context, m models.Media, expires time.Duration) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", "inline; filename=\""+m.Filename+"\"")
	u, err := s.client.PresignedGetObject(ctx, s.bucket, m.ObjectKey, expires, params)
	if err != nil {
		return "", errors.Wrapf(err, "presign %s", m.ObjectKey)
	}
	return u.String(), nil
}

func (s *MinioStore) Delete(ctx context.Context, m models.Media) error {
	if err := s.client.RemoveObject(ctx, s.bucket, m.ObjectKey, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrapf(err, "delete %s", m.ObjectKey)
	}
	return nil
}
