package patient

import (
	"context"
	"io"
	"strings"
	"time"

	mediaRepo "clinicdesk/database/repository/media"
	patientRepo "clinicdesk/database/repository/patient"
	"clinicdesk/models"
	"clinicdesk/services/storage"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const mediaFolder = "medical"

// PatientService manages patients and their medical records.
type PatientService interface {
	Create(ctx context.Context, in models.PatientInput) (*models.PatientProfile, error)
	Get(ctx context.Context, id string) (*models.PatientProfile, error)
	List(ctx context.Context, search, gender string) ([]models.Patient, error)
	Update(ctx context.Context, id string, in models.PatientInput) (*models.Patient, error)
	Delete(ctx context.Context, id string) error

	GetMedical(ctx context.Context, patientID string) (*models.Medical, error)
	UpdateMedical(ctx context.Context, patientID string, patch models.MedicalPatch) (*models.Medical, error)
	AttachMedia(ctx context.Context, patientID string, file MediaUpload) (*models.Media, error)
	ListMedia(ctx context.Context, patientID string) ([]models.Media, error)
}

// MediaUpload is a file attached to a medical record.
type MediaUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// DefaultPatientService is the production implementation.
type DefaultPatientService struct {
	Repo  patientRepo.PatientRepository
	Media mediaRepo.MediaRepository
	Store storage.MediaStore // nil when no media backend is configured
}

var _ PatientService = (*DefaultPatientService)(nil)

var genders = []string{"Male", "Female", "Other"}

func normalize(in models.PatientInput) (models.Patient, error) {
	p := models.Patient{
		FirstName:       strings.TrimSpace(in.FirstName),
		MiddleName:      strings.TrimSpace(in.MiddleName),
		LastName:        strings.TrimSpace(in.LastName),
		Gender:          strings.TrimSpace(in.Gender),
		DateOfBirth:     strings.TrimSpace(in.DateOfBirth),
		Telephone:       strings.TrimSpace(in.Telephone),
		AdditionalPhone: strings.TrimSpace(in.AdditionalPhone),
		Email:           strings.ToLower(strings.TrimSpace(in.Email)),
		Comments:        in.Comments,
	}
	switch {
	case p.FirstName == "":
		return p, utils.NewValidationError("firstName", "is required")
	case p.LastName == "":
		return p, utils.NewValidationError("lastName", "is required")
	case p.Telephone == "":
		return p, utils.NewValidationError("telephone", "is required")
	case p.Email == "":
		return p, utils.NewValidationError("email", "is required")
	}
	if !contains(genders, p.Gender) {
		return p, utils.NewValidationError("gender", "must be one of %s", strings.Join(genders, ", "))
	}
	if _, err := time.Parse(utils.DateLayout, p.DateOfBirth); err != nil {
		return p, utils.NewValidationError("dateOfBirth", "must be YYYY-MM-DD")
	}
	return p, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// Create inserts the patient together with an empty medical record.
func (s *DefaultPatientService) Create(ctx context.Context, in models.PatientInput) (*models.PatientProfile, error) {
	p, err := normalize(in)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	p.ID = uuid.NewString()
	p.CreatedAt, p.UpdatedAt = now, now
	medical := &models.Medical{
		ID:        uuid.NewString(),
		PatientID: p.ID,
		Media:     []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.CreateWithMedical(ctx, &p, medical); err != nil {
		return nil, errors.Wrap(err, "create patient")
	}
	utils.GetLogger().Info("Patient created", zap.String("patientId", p.ID))
	return &models.PatientProfile{Patient: p, Medical: medical}, nil
}

func (s *DefaultPatientService) Get(ctx context.Context, id string) (*models.PatientProfile, error) {
	p, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get patient %s", id)
	}
	if p == nil {
		return nil, utils.NewNotFound("patient", id)
	}
	medical, err := s.Repo.GetMedical(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get medical record of %s", id)
	}
	return &models.PatientProfile{Patient: *p, Medical: medical}, nil
}

func (s *DefaultPatientService) List(ctx context.Context, search, gender string) ([]models.Patient, error) {
	gender = strings.TrimSpace(gender)
	if gender != "" && !contains(genders, gender) {
		return nil, utils.NewValidationError("gender", "must be one of %s", strings.Join(genders, ", "))
	}
	return s.Repo.Search(ctx, strings.TrimSpace(search), gender)
}

func (s *DefaultPatientService) Update(ctx context.Context, id string, in models.PatientInput) (*models.Patient, error) {
	existing, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get patient %s", id)
	}
	if existing == nil {
		return nil, utils.NewNotFound("patient", id)
	}
	p, err := normalize(in)
	if err != nil {
		return nil, err
	}
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	if err := s.Repo.Replace(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes the patient, medical record and media records in one
// transaction, then deletes the stored objects best effort.
func (s *DefaultPatientService) Delete(ctx context.Context, id string) error {
	removed, err := s.Repo.DeleteCascade(ctx, id)
	if err != nil {
		return err
	}
	logger := utils.GetLogger()
	for _, m := range removed {
		if !m.IsStored() || s.Store == nil {
			continue
		}
		if err := s.Store.Delete(ctx, m); err != nil {
			logger.Warn("Failed to delete stored medical file", zap.String("mediaId", m.ID), zap.Error(err))
		}
	}
	logger.Info("Patient deleted", zap.String("patientId", id), zap.Int("media", len(removed)))
	return nil
}

func (s *DefaultPatientService) GetMedical(ctx context.Context, patientID string) (*models.Medical, error) {
	medical, err := s.Repo.GetMedical(ctx, patientID)
	if err != nil {
		return nil, errors.Wrapf(err, "get medical record of %s", patientID)
	}
	if medical == nil {
		return nil, utils.NewNotFound("medical record", patientID)
	}
	return medical, nil
}

func (s *DefaultPatientService) UpdateMedical(ctx context.Context, patientID string, patch models.MedicalPatch) (*models.Medical, error) {
	if patch.MedicalHistory == nil && patch.MedicalComments == nil {
		return nil, utils.NewValidationError("medical", "nothing to update")
	}
	return s.Repo.UpdateMedical(ctx, patientID, patch)
}

// AttachMedia stores a file and links it to the patient's medical record.
func (s *DefaultPatientService) AttachMedia(ctx context.Context, patientID string, file MediaUpload) (*models.Media, error) {
	if s.Store == nil {
		return nil, &utils.UnavailableError{Service: "media storage"}
	}
	if file.Body == nil || file.Filename == "" {
		return nil, utils.NewValidationError("file", "is required")
	}
	medical, err := s.GetMedical(ctx, patientID)
	if err != nil {
		return nil, err
	}

	obj, err := s.Store.Put(ctx, storage.ObjectKey(mediaFolder+"/"+patientID, file.Filename), file.Body, file.Size, file.ContentType)
	if err != nil {
		return nil, errors.Wrapf(err, "store medical file for %s", patientID)
	}
	media := &models.Media{
		ID:        uuid.NewString(),
		Medical:   medical.ID,
		Filename:  file.Filename,
		URL:       obj.URL,
		ObjectKey: obj.Key,
		Backend:   obj.Backend,
		MimeType:  file.ContentType,
		Size:      file.Size,
		CreatedAt: time.Now(),
	}
	if err := s.Media.Create(ctx, media); err != nil {
		return nil, errors.Wrap(err, "save medical file")
	}
	if err := s.Repo.AddMedicalMedia(ctx, medical.ID, media.ID); err != nil {
		return nil, errors.Wrap(err, "link medical file")
	}
	return media, nil
}

func (s *DefaultPatientService) ListMedia(ctx context.Context, patientID string) ([]models.Media, error) {
	medical, err := s.GetMedical(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if len(medical.Media) == 0 {
		return []models.Media{}, nil
	}
	return s.Media.GetByIDs(ctx, medical.Media)
}
