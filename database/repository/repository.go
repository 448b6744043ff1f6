package repository

import (
	adminRepo "clinicdesk/database/repository/admin"
	applicationRepo "clinicdesk/database/repository/application"
	appointmentRepo "clinicdesk/database/repository/appointment"
	commentRepo "clinicdesk/database/repository/comment"
	counterRepo "clinicdesk/database/repository/counter"
	doctorRepo "clinicdesk/database/repository/doctor"
	mediaRepo "clinicdesk/database/repository/media"
	patientRepo "clinicdesk/database/repository/patient"
	paymentRepo "clinicdesk/database/repository/payment"
	taskRepo "clinicdesk/database/repository/task"
)

// Re-export the repository interfaces and constructors.
type (
	AdminRepository       = adminRepo.AdminRepository
	ApplicationRepository = applicationRepo.ApplicationRepository
	AppointmentRepository = appointmentRepo.AppointmentRepository
	CommentRepository     = commentRepo.CommentRepository
	CounterRepository     = counterRepo.CounterRepository
	DoctorRepository      = doctorRepo.DoctorRepository
	MediaRepository       = mediaRepo.MediaRepository
	PatientRepository     = patientRepo.PatientRepository
	PaymentRepository     = paymentRepo.PaymentRepository
	TaskRepository        = taskRepo.TaskRepository
)

var (
	NewMongoAdminRepo       = adminRepo.NewMongoAdminRepo
	NewMongoApplicationRepo = applicationRepo.NewMongoApplicationRepo
	NewMongoAppointmentRepo = appointmentRepo.NewMongoAppointmentRepo
	NewMongoCommentRepo     = commentRepo.NewMongoCommentRepo
	NewMongoCounterRepo     = counterRepo.NewMongoCounterRepo
	NewMongoDoctorRepo      = doctorRepo.NewMongoDoctorRepo
	NewMongoMediaRepo       = mediaRepo.NewMongoMediaRepo
	NewMongoPatientRepo     = patientRepo.NewMongoPatientRepo
	NewMongoPaymentRepo     = paymentRepo.NewMongoPaymentRepo
	NewMongoTaskRepo        = taskRepo.NewMongoTaskRepo
)

// Repositories bundles every store the services depend on.
type Repositories struct {
	Admins       AdminRepository
	Applications ApplicationRepository
	Appointments AppointmentRepository
	Comments     CommentRepository
	Counters     CounterRepository
	Doctors      DoctorRepository
	Media        MediaRepository
	Patients     PatientRepository
	Payments     PaymentRepository
	Tasks        TaskRepository
}

// NewMongoRepositories builds every Mongo repository. database.InitDB must run first.
func NewMongoRepositories() *Repositories {
	return &Repositories{
		Admins:       NewMongoAdminRepo(),
		Applications: NewMongoApplicationRepo(),
		Appointments: NewMongoAppointmentRepo(),
		Comments:     NewMongoCommentRepo(),
		Counters:     NewMongoCounterRepo(),
		Doctors:      NewMongoDoctorRepo(),
		Media:        NewMongoMediaRepo(),
		Patients:     NewMongoPatientRepo(),
		Payments:     NewMongoPaymentRepo(),
		Tasks:        NewMongoTaskRepo(),
	}
}
