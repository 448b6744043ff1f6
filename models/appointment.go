package models

import "time"

// Appointment is the calendar projection of an Application, keyed by the
// application's human-readable id. It can always be rebuilt from its source.
type Appointment struct {
	ID                string    `bson:"id" json:"id"`
	PatientName       string    `bson:"patientName" json:"patientName"`
	DoctorName        string    `bson:"doctorName" json:"doctorName"`
	Specialty         string    `bson:"specialty" json:"specialty"`
	AppointmentMode   string    `bson:"appointmentMode" json:"appointmentMode"`
	Date              string    `bson:"date" json:"date"`
	StartTime         string    `bson:"startTime" json:"startTime"`
	EndTime           string    `bson:"endTime" json:"endTime"`
	AppointmentStatus string    `bson:"appointmentStatus" json:"appointmentStatus"`
	UpdatedAt         time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (a Appointment) IntervalID() string    { return a.ID }
func (a Appointment) IntervalDate() string  { return a.Date }
func (a Appointment) IntervalOwner() string { return a.DoctorName }
func (a Appointment) IntervalTimes() (string, string) {
	return a.StartTime, a.EndTime
}

// AppointmentQuery selects appointments for the calendar. Date wins over the
// range; an empty query means the current month.
type AppointmentQuery struct {
	Date      string
	StartDate string
	EndDate   string
	Doctor    string
}
