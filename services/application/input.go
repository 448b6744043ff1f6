package application

import (
	"strings"
	"time"

	"clinicdesk/models"
	"clinicdesk/utils"

	"github.com/samber/lo"
)

// ParseRecordDate accepts an RFC3339 timestamp or a bare YYYY-MM-DD, the
// latter read as midnight in loc.
func ParseRecordDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, utils.NewValidationError("recordDate", "is required")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(utils.DateLayout, raw, loc); err == nil {
		return t, nil
	}
	return time.Time{}, utils.NewValidationError("recordDate", "must be RFC3339 or YYYY-MM-DD, got %q", raw)
}

func oneOf(field, value string, allowed []string) error {
	if value == "" || lo.Contains(allowed, value) {
		return nil
	}
	return utils.NewValidationError(field, "must be one of %s", strings.Join(allowed, ", "))
}

// validateEnums checks every enum field of app.
func validateEnums(app *models.Application) error {
	checks := []struct {
		field, value string
		allowed      []string
	}{
		{"serviceType", app.ServiceType, models.ServiceTypes},
		{"appointmentMode", app.AppointmentMode, models.AppointmentModes},
		{"appointmentStatus", app.AppointmentStatus, models.AppointmentStatuses},
		{"paymentStatus", app.PaymentStatus, models.PaymentStatuses},
	}
	for _, c := range checks {
		if err := oneOf(c.field, c.value, c.allowed); err != nil {
			return err
		}
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func doctorName(d *models.Doctor) string {
	if d == nil {
		return ""
	}
	return models.FullName(d.FirstName, d.MiddleName, d.LastName)
}
