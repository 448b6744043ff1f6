package patientRepo

import (
	"context"

	"clinicdesk/models"
)

// PatientRepository defines methods for patient and medical record access.
type PatientRepository interface {
	// CreateWithMedical inserts the patient and its medical record in one transaction.
	CreateWithMedical(ctx context.Context, patient *models.Patient, medical *models.Medical) error
	Replace(ctx context.Context, patient *models.Patient) error
	// DeleteCascade removes media, medical and patient in one transaction and
	// returns the removed media so stored objects can be cleaned up.
	DeleteCascade(ctx context.Context, id string) ([]models.Media, error)
	GetByID(ctx context.Context, id string) (*models.Patient, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Patient, error)
	Search(ctx context.Context, search, gender string) ([]models.Patient, error)
	// MatchIDs returns ids of patients whose name, phone or email matches search.
	MatchIDs(ctx context.Context, search string) ([]string, error)

	GetMedical(ctx context.Context, patientID string) (*models.Medical, error)
	UpdateMedical(ctx context.Context, patientID string, patch models.MedicalPatch) (*models.Medical, error)
	AddMedicalMedia(ctx context.Context, medicalID, mediaID string) error
}
