package storage

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"clinicdesk/models"

	"github.com/google/uuid"
)

const (
	BackendMinio      = "minio"
	BackendCloudinary = "cloudinary"
	BackendGCS        = "gcs"
)

// Object is what a store hands back after an upload.
type Object struct {
	Key     string
	URL     string // empty when the store signs URLs on demand
	Backend string
}

// MediaStore keeps attachment bytes outside Mongo.
type MediaStore interface {
	Backend() string
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*Object, error)
	// URL returns a link the dashboard can open for m.
	URL(ctx context.Context, m models.Media, expires time.Duration) (string, error)
	Delete(ctx context.Context, m models.Media) error
}

// ObjectKey builds a collision-free key under folder that keeps the original
// file extension.
func ObjectKey(folder, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(folder, uuid.NewString()+ext)
}

// resourceType buckets a mime type the way Cloudinary expects.
func resourceType(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return "image"
	case strings.HasPrefix(mimeType, "video/"):
		return "video"
	default:
		return "raw"
	}
}
