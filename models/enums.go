package models

// Service types an application can be booked for.
const (
	ServiceConsultation = "Consultation"
	ServiceFollowUp     = "Follow-up"
	ServiceProcedure    = "Procedure"
	ServiceOther        = "Other"
)

// Appointment modes.
const (
	ModeOnline  = "Online"
	ModeOffline = "Offline"
)

// Appointment statuses shared by applications and their projections.
const (
	StatusNew       = "New"
	StatusInProcess = "In Process"
	StatusOld       = "Old"
	StatusCancelled = "Cancelled"
)

// Application payment statuses.
const (
	PaymentStatusNew         = "new"
	PaymentStatusInvoiceSent = "invoice-sent"
	PaymentStatusPaid        = "paid"
	PaymentStatusCancelled   = "cancelled"
	PaymentStatusFree        = "free"
)

// Invoice (Payment record) statuses.
const (
	InvoiceNew       = "New"
	InvoiceInProcess = "In Process"
	InvoicePaid      = "Paid"
	InvoiceCancelled = "Cancelled"
	InvoiceFree      = "Free"
)

// Supported currencies.
const (
	CurrencyRUB = "RUB"
	CurrencyINR = "INR"
	CurrencyEUR = "EUR"
)

var (
	ServiceTypes        = []string{ServiceConsultation, ServiceFollowUp, ServiceProcedure, ServiceOther}
	AppointmentModes    = []string{ModeOnline, ModeOffline}
	AppointmentStatuses = []string{StatusNew, StatusInProcess, StatusOld, StatusCancelled}
	PaymentStatuses     = []string{PaymentStatusNew, PaymentStatusInvoiceSent, PaymentStatusPaid, PaymentStatusCancelled, PaymentStatusFree}
	InvoiceStatuses     = []string{InvoiceNew, InvoiceInProcess, InvoicePaid, InvoiceCancelled, InvoiceFree}
	Currencies          = []string{CurrencyRUB, CurrencyINR, CurrencyEUR}
)

// Dashboard event names.
const (
	EventNewApplication    = "newApplication"
	EventUpdateApplication = "updateApplication"
	EventDeleteApplication = "deleteApplication"
	EventNewAppointment    = "newAppointment"
	EventUpdateAppointment = "updateAppointment"
	EventDeleteAppointment = "deleteAppointment"
	EventNewTask           = "newTask"
	EventUpdateTask        = "updateTask"
	EventDeleteTask        = "deleteTask"
	EventNewPayment        = "newPayment"
	EventUpdatePayment     = "updatePayment"
)
