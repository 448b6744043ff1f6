package application

import (
	"context"
	"io"
	"time"

	applicationRepo "clinicdesk/database/repository/application"
	commentRepo "clinicdesk/database/repository/comment"
	mediaRepo "clinicdesk/database/repository/media"
	"clinicdesk/models"
	"clinicdesk/services/notification"
	"clinicdesk/services/projection"
	"clinicdesk/services/schedule"
	"clinicdesk/services/sequence"
	"clinicdesk/services/storage"
	"clinicdesk/utils"
)

// ApplicationService manages consultation requests and everything hanging off them.
type ApplicationService interface {
	// Lifecycle
	Create(ctx context.Context, in models.ApplicationInput) (*Outcome, error)
	Update(ctx context.Context, ref string, patch models.ApplicationPatch) (*Outcome, error)
	Delete(ctx context.Context, ref string) (*utils.SyncFailure, error)

	// Reads
	Get(ctx context.Context, ref string) (*models.ApplicationView, error)
	List(ctx context.Context, filter models.ApplicationFilter) (*models.ApplicationPage, error)
	History(ctx context.Context, patientID string) ([]models.ApplicationView, error)

	// Comments
	AddComment(ctx context.Context, ref, text string) (*models.Comment, error)
	ListComments(ctx context.Context, ref string) ([]models.Comment, error)
	UpdateComment(ctx context.Context, commentID, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, commentID string) error

	// Documents
	UploadDocument(ctx context.Context, ref string, file Upload) (*models.Media, error)
	AddDocumentLinks(ctx context.Context, ref string, links []DocumentLink) ([]models.Media, error)
	ListDocuments(ctx context.Context, ref string) ([]models.Media, error)
	DocumentURL(ctx context.Context, mediaID string) (string, error)
	DeleteDocument(ctx context.Context, ref, mediaID string) error
}

// Outcome is a committed write plus the projection failure, if any, that
// followed it.
type Outcome struct {
	Application *models.ApplicationView
	Sync        *utils.SyncFailure
}

// Upload is a file received from the dashboard.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// DocumentLink registers an externally hosted file.
type DocumentLink struct {
	URL      string `json:"url" binding:"required"`
	Filename string `json:"filename"`
	MimeType string `json:"mimetype"`
}

// PatientLookup is what applications need from the patient store.
type PatientLookup interface {
	GetByID(ctx context.Context, id string) (*models.Patient, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Patient, error)
	MatchIDs(ctx context.Context, search string) ([]string, error)
}

// DoctorLookup is what applications need from the doctor store.
type DoctorLookup interface {
	GetByID(ctx context.Context, id string) (*models.Doctor, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Doctor, error)
}

// ConflictChecker rejects windows that overlap a booked interval.
type ConflictChecker interface {
	Check(ctx context.Context, candidate schedule.Slot, excludeID string) error
}

// Projector keeps the calendar projection in step.
type Projector interface {
	OnApplicationCreated(ctx context.Context, app *models.Application) *utils.SyncFailure
	OnApplicationUpdated(ctx context.Context, app *models.Application) *utils.SyncFailure
	OnApplicationDeleted(ctx context.Context, number string) *utils.SyncFailure
}

// DefaultApplicationService is the production implementation.
type DefaultApplicationService struct {
	Repo      applicationRepo.ApplicationRepository
	Patients  PatientLookup
	Doctors   DoctorLookup
	Comments  commentRepo.CommentRepository
	Media     mediaRepo.MediaRepository
	Store     storage.MediaStore // nil when no media backend is configured
	Allocator sequence.Allocator
	Calendar  ConflictChecker
	Sync      Projector
	Emitter   notification.Emitter
	Defaults  projection.Defaults
	Now       func() time.Time
}

var _ ApplicationService = (*DefaultApplicationService)(nil)

func (s *DefaultApplicationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultApplicationService) location() *time.Location {
	if s.Defaults.Location != nil {
		return s.Defaults.Location
	}
	return time.UTC
}

func (s *DefaultApplicationService) emit(ctx context.Context, name string, payload interface{}) {
	if s.Emitter != nil {
		s.Emitter.Emit(ctx, name, payload)
	}
}
