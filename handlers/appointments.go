package handlers

import (
	"context"
	"net/http"

	"clinicdesk/models"
	"clinicdesk/utils"

	"github.com/gin-gonic/gin"
)

// Calendar is the read side of the appointment projection.
type Calendar interface {
	List(ctx context.Context, q models.AppointmentQuery) ([]models.Appointment, error)
	All(ctx context.Context) ([]models.Appointment, error)
	Get(ctx context.Context, number string) (*models.Appointment, error)
	Doctors(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, number string) error
}

// Reconciler rebuilds one projection from its application.
type Reconciler interface {
	Reconcile(ctx context.Context, number string) (*models.Appointment, error)
}

// ApplicationGetter resolves an internal id or a number to an application.
type ApplicationGetter interface {
	Get(ctx context.Context, ref string) (*models.ApplicationView, error)
}

type AppointmentHandler struct {
	Calendar     Calendar
	Sync         Reconciler
	Applications ApplicationGetter
}

func NewAppointmentHandler(cal Calendar, sync Reconciler, apps ApplicationGetter) *AppointmentHandler {
	return &AppointmentHandler{Calendar: cal, Sync: sync, Applications: apps}
}

// ListAppointmentsHandler handles GET /api/appointments. Without filters it
// returns the current month.
func (h *AppointmentHandler) ListAppointmentsHandler(c *gin.Context) {
	appts, err := h.Calendar.List(c.Request.Context(), models.AppointmentQuery{
		Date:      c.Query("date"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		Doctor:    c.Query("executor"),
	})
	if err != nil {
		utils.RespondError(c, "Failed to fetch appointments", err)
		return
	}
	c.JSON(http.StatusOK, appts)
}

func (h *AppointmentHandler) AllAppointmentsHandler(c *gin.Context) {
	appts, err := h.Calendar.All(c.Request.Context())
	if err != nil {
		utils.RespondError(c, "Failed to fetch appointments", err)
		return
	}
	c.JSON(http.StatusOK, appts)
}

func (h *AppointmentHandler) GetAppointmentHandler(c *gin.Context) {
	appt, err := h.Calendar.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, "Failed to fetch appointment", err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

// DoctorsHandler handles GET /api/appointments/doctors.
func (h *AppointmentHandler) DoctorsHandler(c *gin.Context) {
	names, err := h.Calendar.Doctors(c.Request.Context())
	if err != nil {
		utils.RespondError(c, "Failed to fetch doctors", err)
		return
	}
	c.JSON(http.StatusOK, names)
}

func (h *AppointmentHandler) DeleteAppointmentHandler(c *gin.Context) {
	if err := h.Calendar.Delete(c.Request.Context(), c.Param("id")); err != nil {
		utils.RespondError(c, "Failed to delete appointment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted"})
}

// SyncAppointmentHandler handles POST /api/appointments/sync with
// {"applicationId": ...} and PUT /api/appointments/sync/:id. Unlike the
// automatic sync, failures here are returned to the caller.
func (h *AppointmentHandler) SyncAppointmentHandler(c *gin.Context) {
	ref := c.Param("id")
	if ref == "" {
		var body struct {
			ApplicationID string `json:"applicationId" binding:"required"`
		}
		if !bindJSON(c, &body) {
			return
		}
		ref = body.ApplicationID
	}

	app, err := h.Applications.Get(c.Request.Context(), ref)
	if err != nil {
		utils.RespondError(c, "Failed to sync appointment", err)
		return
	}
	appt, err := h.Sync.Reconcile(c.Request.Context(), app.Number)
	if err != nil {
		utils.RespondError(c, "Failed to sync appointment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment synchronized", "appointment": appt})
}
