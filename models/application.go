package models

import "time"

// Application is a patient's consultation request and the source of truth for
// its Appointment projection.
type Application struct {
	ID                string    `bson:"_id" json:"_id"`                           // Internal identity (UUID)
	Number            string    `bson:"id" json:"id"`                             // Human-readable id, e.g. HD-R-001-02/2025-0001
	PatientID         string    `bson:"patient" json:"patient"`
	DoctorID          string    `bson:"doctor" json:"doctor"`
	RecordDate        time.Time `bson:"recordDate" json:"recordDate"`
	Date              string    `bson:"date" json:"date"`           // YYYY-MM-DD in the clinic timezone
	StartTime         string    `bson:"startTime" json:"startTime"` // HH:MM
	EndTime           string    `bson:"endTime" json:"endTime"`     // HH:MM
	ServiceType       string    `bson:"serviceType" json:"serviceType"`
	Specialty         string    `bson:"specialty" json:"specialty"`
	AppointmentMode   string    `bson:"appointmentMode" json:"appointmentMode"`
	AppointmentStatus string    `bson:"appointmentStatus" json:"appointmentStatus"`
	PaymentStatus     string    `bson:"paymentStatus" json:"paymentStatus"`
	Documents         []string  `bson:"documents" json:"documents"`               // Media ids
	PreviousComments  []string  `bson:"previousComments" json:"previousComments"` // Comment ids
	Payments          []string  `bson:"payments" json:"payments"`                 // Payment ids
	CreatedAt         time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ApplicationInput is the create payload.
type ApplicationInput struct {
	Patient           string `json:"patient" binding:"required"`
	Doctor            string `json:"doctor" binding:"required"`
	RecordDate        string `json:"recordDate" binding:"required"`
	StartTime         string `json:"startTime" binding:"omitempty,hhmm"`
	EndTime           string `json:"endTime" binding:"omitempty,hhmm"`
	ServiceType       string `json:"serviceType"`
	Specialty         string `json:"specialty"`
	AppointmentMode   string `json:"appointmentMode"`
	AppointmentStatus string `json:"appointmentStatus"`
	PaymentStatus     string `json:"paymentStatus"`
}

// ApplicationPatch is the partial update payload. Nil fields are left untouched.
type ApplicationPatch struct {
	Patient           *string `json:"patient"`
	Doctor            *string `json:"doctor"`
	RecordDate        *string `json:"recordDate"`
	StartTime         *string `json:"startTime"`
	EndTime           *string `json:"endTime"`
	ServiceType       *string `json:"serviceType"`
	Specialty         *string `json:"specialty"`
	AppointmentMode   *string `json:"appointmentMode"`
	AppointmentStatus *string `json:"appointmentStatus"`
	PaymentStatus     *string `json:"paymentStatus"`
}

// ApplicationFilter narrows application listings.
type ApplicationFilter struct {
	Page              int
	Limit             int
	Search            string
	AppointmentStatus string
	PaymentStatus     string
	DoctorID          string
	RecordDate        string // YYYY-MM-DD
	PatientIDs        []string
}

// PersonSummary is the populated patient or doctor shown next to an application.
type PersonSummary struct {
	ID         string `json:"_id"`
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName,omitempty"`
	LastName   string `json:"lastName"`
	Email      string `json:"email,omitempty"`
	Telephone  string `json:"telephone,omitempty"`
	Specialty  string `json:"specialty,omitempty"`
}

// ApplicationView is an application with its patient and doctor populated.
type ApplicationView struct {
	Application
	Patient *PersonSummary `json:"patient"`
	Doctor  *PersonSummary `json:"doctor"`
}

// ApplicationPage is one page of a listing.
type ApplicationPage struct {
	Applications []ApplicationView `json:"applications"`
	Total        int64             `json:"total"`
	Page         int               `json:"page"`
	Limit        int               `json:"limit"`
	TotalPages   int64             `json:"totalPages"`
}
