package models

import "time"

// Patient is a person receiving care.
type Patient struct {
	ID              string    `bson:"_id" json:"_id"`
	FirstName       string    `bson:"firstName" json:"firstName"`
	MiddleName      string    `bson:"middleName" json:"middleName"`
	LastName        string    `bson:"lastName" json:"lastName"`
	Gender          string    `bson:"gender" json:"gender"`
	DateOfBirth     string    `bson:"dateOfBirth" json:"dateOfBirth"`
	Telephone       string    `bson:"telephone" json:"telephone"`
	AdditionalPhone string    `bson:"additionalPhone" json:"additionalPhone"`
	Email           string    `bson:"email" json:"email"`
	Comments        string    `bson:"comments" json:"comments"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PatientInput is the create and update payload.
type PatientInput struct {
	FirstName       string `json:"firstName" binding:"required"`
	MiddleName      string `json:"middleName"`
	LastName        string `json:"lastName" binding:"required"`
	Gender          string `json:"gender" binding:"required"`
	DateOfBirth     string `json:"dateOfBirth" binding:"required"`
	Telephone       string `json:"telephone" binding:"required"`
	AdditionalPhone string `json:"additionalPhone"`
	Email           string `json:"email" binding:"required,email"`
	Comments        string `json:"comments"`
}

// Medical holds the clinical notes attached to a patient.
type Medical struct {
	ID              string    `bson:"_id" json:"_id"`
	PatientID       string    `bson:"patientId" json:"patientId"`
	MedicalHistory  string    `bson:"medicalHistory" json:"medicalHistory"`
	MedicalComments string    `bson:"medicalComments" json:"medicalComments"`
	Media           []string  `bson:"media" json:"media"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// MedicalPatch updates clinical notes.
type MedicalPatch struct {
	MedicalHistory  *string `json:"medicalHistory"`
	MedicalComments *string `json:"medicalComments"`
}

// PatientProfile is a patient with its medical record.
type PatientProfile struct {
	Patient
	Medical *Medical `json:"medical"`
}

// Summary returns the populated form used in application views.
func (p *Patient) Summary() *PersonSummary {
	if p == nil {
		return nil
	}
	return &PersonSummary{
		ID:         p.ID,
		FirstName:  p.FirstName,
		MiddleName: p.MiddleName,
		LastName:   p.LastName,
		Email:      p.Email,
		Telephone:  p.Telephone,
	}
}
