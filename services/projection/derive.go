package projection

import (
	"time"

	"clinicdesk/models"
	"clinicdesk/utils"
)

const (
	UnknownPatient   = "Unknown Patient"
	UnknownDoctor    = "Unknown Doctor"
	UnknownSpecialty = "Unknown Specialty"
)

// Defaults fill the fields an application may leave empty.
type Defaults struct {
	StartTime string
	EndTime   string
	Location  *time.Location
}

// DefaultWindow is the 09:00-10:00 slot in UTC.
func DefaultWindow() Defaults {
	return Defaults{StartTime: "09:00", EndTime: "10:00", Location: time.UTC}
}

// Derive builds the appointment projection of app. It is pure; nil patient or
// doctor fall back to placeholder names.
func Derive(app *models.Application, patient *models.Patient, doctor *models.Doctor, d Defaults) models.Appointment {
	patientName := UnknownPatient
	if patient != nil {
		if n := models.FullName(patient.FirstName, patient.MiddleName, patient.LastName); n != "" {
			patientName = n
		}
	}
	doctorName := UnknownDoctor
	if doctor != nil {
		if n := models.FullName(doctor.FirstName, doctor.MiddleName, doctor.LastName); n != "" {
			doctorName = n
		}
	}

	specialty := app.Specialty
	if specialty == "" && doctor != nil {
		specialty = doctor.Specialty
	}

	return models.Appointment{
		ID:                app.Number,
		PatientName:       patientName,
		DoctorName:        doctorName,
		Specialty:         fallback(specialty, UnknownSpecialty),
		AppointmentMode:   fallback(app.AppointmentMode, models.ModeOnline),
		Date:              dateOf(app, d.Location),
		StartTime:         fallback(app.StartTime, d.StartTime),
		EndTime:           fallback(app.EndTime, d.EndTime),
		AppointmentStatus: fallback(app.AppointmentStatus, models.StatusNew),
	}
}

func dateOf(app *models.Application, loc *time.Location) string {
	if app.Date != "" || app.RecordDate.IsZero() {
		return app.Date
	}
	if loc == nil {
		loc = time.UTC
	}
	return app.RecordDate.In(loc).Format(utils.DateLayout)
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
