package handlers

import (
	"clinicdesk/services/admin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Admin is also used by the auth middleware.
	AdminService admin.AdminService

	Applications  *ApplicationHandler
	Appointments  *AppointmentHandler
	Tasks         *TaskHandler
	Patients      *PatientHandler
	Doctors       *DoctorHandler
	Payments      *PaymentHandler
	Notifications *NotificationHandler
	Events        *EventsHandler
	Admin         *AdminHandler
}
