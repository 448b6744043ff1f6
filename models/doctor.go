package models

import "time"

// Fees is a doctor's consultation price. Amount is optional.
type Fees struct {
	Amount   *float64 `bson:"amount" json:"amount"`
	Currency string   `bson:"currency" json:"currency"` // RUB, INR or EUR
}

// Doctor is a clinician that applications are booked against.
type Doctor struct {
	ID          string    `bson:"_id" json:"_id"`
	FirstName   string    `bson:"firstName" json:"firstName"`
	MiddleName  string    `bson:"middleName" json:"middleName"`
	LastName    string    `bson:"lastName" json:"lastName"`
	Specialty   string    `bson:"specialty" json:"specialty"`
	ServiceType []string  `bson:"serviceType" json:"serviceType"` // Online, Offline
	Email       string    `bson:"email" json:"email"`
	Phone       string    `bson:"phone" json:"phone"`
	Fees        Fees      `bson:"fees" json:"fees"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DoctorInput is the create and update payload.
type DoctorInput struct {
	FirstName   string   `json:"firstName" binding:"required"`
	MiddleName  string   `json:"middleName"`
	LastName    string   `json:"lastName" binding:"required"`
	Specialty   string   `json:"specialty" binding:"required"`
	ServiceType []string `json:"serviceType" binding:"required,min=1"`
	Email       string   `json:"email" binding:"omitempty,email"`
	Phone       string   `json:"phone"`
	Fees        Fees     `json:"fees"`
}

// Summary returns the populated form used in application views.
func (d *Doctor) Summary() *PersonSummary {
	if d == nil {
		return nil
	}
	return &PersonSummary{
		ID:         d.ID,
		FirstName:  d.FirstName,
		MiddleName: d.MiddleName,
		LastName:   d.LastName,
		Email:      d.Email,
		Telephone:  d.Phone,
		Specialty:  d.Specialty,
	}
}
