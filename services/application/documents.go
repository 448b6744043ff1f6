package application

import (
	"context"
	"net/url"
	"path"
	"strings"
	"time"

	"clinicdesk/models"
	"clinicdesk/services/storage"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	documentFolder = "applications"
	signedURLTTL   = 15 * time.Minute
)

func (s *DefaultApplicationService) mediaStore() (storage.MediaStore, error) {
	if s.Store == nil {
		return nil, &utils.UnavailableError{Service: "media storage"}
	}
	return s.Store, nil
}

// UploadDocument stores the file bytes and attaches them to the application.
func (s *DefaultApplicationService) UploadDocument(ctx context.Context, ref string, file Upload) (*models.Media, error) {
	store, err := s.mediaStore()
	if err != nil {
		return nil, err
	}
	if file.Body == nil || file.Filename == "" {
		return nil, utils.NewValidationError("file", "is required")
	}
	app, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}

	obj, err := store.Put(ctx, storage.ObjectKey(documentFolder+"/"+app.ID, file.Filename), file.Body, file.Size, file.ContentType)
	if err != nil {
		return nil, errors.Wrapf(err, "store document for %s", app.Number)
	}
	media := &models.Media{
		ID:          uuid.NewString(),
		Application: app.ID,
		Filename:    file.Filename,
		URL:         obj.URL,
		ObjectKey:   obj.Key,
		Backend:     obj.Backend,
		MimeType:    file.ContentType,
		Size:        file.Size,
		CreatedAt:   s.now(),
	}
	if err := s.attach(ctx, app, media); err != nil {
		if derr := store.Delete(ctx, *media); derr != nil {
			utils.GetLogger().Warn("Failed to remove orphaned object", zap.String("key", obj.Key), zap.Error(derr))
		}
		return nil, err
	}
	return media, nil
}

// AddDocumentLinks registers externally hosted files. Links that are not
// absolute http(s) URLs are skipped; an input with none valid is rejected.
func (s *DefaultApplicationService) AddDocumentLinks(ctx context.Context, ref string, links []DocumentLink) ([]models.Media, error) {
	valid := lo.Filter(links, func(l DocumentLink, _ int) bool { return isHTTPURL(l.URL) })
	if len(valid) == 0 {
		return nil, utils.NewValidationError("documents", "no valid http(s) links given")
	}
	app, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}

	out := make([]models.Media, 0, len(valid))
	for _, l := range valid {
		filename := l.Filename
		if filename == "" {
			filename = linkFilename(l.URL)
		}
		media := &models.Media{
			ID:          uuid.NewString(),
			Application: app.ID,
			Filename:    filename,
			URL:         l.URL,
			MimeType:    orDefault(l.MimeType, "application/octet-stream"),
			CreatedAt:   s.now(),
		}
		if err := s.attach(ctx, app, media); err != nil {
			return out, err
		}
		out = append(out, *media)
	}
	return out, nil
}

func (s *DefaultApplicationService) attach(ctx context.Context, app *models.Application, media *models.Media) error {
	if err := s.Media.Create(ctx, media); err != nil {
		return errors.Wrapf(err, "save document for %s", app.Number)
	}
	if err := s.Repo.AddDocument(ctx, app.ID, media.ID); err != nil {
		return errors.Wrapf(err, "link document to %s", app.Number)
	}
	s.emit(ctx, models.EventUpdateApplication, map[string]string{"_id": app.ID, "id": app.Number})
	return nil
}

func (s *DefaultApplicationService) ListDocuments(ctx context.Context, ref string) ([]models.Media, error) {
	app, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.Media.ListByApplication(ctx, app.ID)
}

// DocumentURL returns where the dashboard should be redirected to open the file.
func (s *DefaultApplicationService) DocumentURL(ctx context.Context, mediaID string) (string, error) {
	media, err := s.Media.GetByID(ctx, mediaID)
	if err != nil {
		return "", errors.Wrapf(err, "load document %s", mediaID)
	}
	if media == nil {
		return "", utils.NewNotFound("document", mediaID)
	}
	if !media.IsStored() {
		return media.URL, nil
	}
	store, err := s.mediaStore()
	if err != nil {
		return "", err
	}
	return store.URL(ctx, *media, signedURLTTL)
}

// DeleteDocument removes a document that belongs to the application.
func (s *DefaultApplicationService) DeleteDocument(ctx context.Context, ref, mediaID string) error {
	app, err := s.load(ctx, ref)
	if err != nil {
		return err
	}
	media, err := s.Media.GetByID(ctx, mediaID)
	if err != nil {
		return errors.Wrapf(err, "load document %s", mediaID)
	}
	if media == nil || media.Application != app.ID {
		return utils.NewNotFound("document", mediaID)
	}

	if media.IsStored() {
		store, err := s.mediaStore()
		if err != nil {
			return err
		}
		if err := store.Delete(ctx, *media); err != nil {
			return err
		}
	}
	if err := s.Media.Delete(ctx, media.ID); err != nil {
		return err
	}
	if err := s.Repo.RemoveDocument(ctx, app.ID, media.ID); err != nil {
		return errors.Wrapf(err, "unlink document from %s", app.Number)
	}
	s.emit(ctx, models.EventUpdateApplication, map[string]string{"_id": app.ID, "id": app.Number})
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func linkFilename(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "document"
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "document"
	}
	return name
}
