package schedule

import (
	"fmt"
	"strings"
	"time"

	"clinicdesk/utils"
)

// TimeOfDay is a wall-clock time as minutes since midnight.
type TimeOfDay int

const minutesPerDay = 24 * 60

// ParseTimeOfDay accepts H:MM or HH:MM in [00:00, 23:59].
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 {
		return 0, utils.NewValidationError("time", "%q is not a valid HH:MM time", s)
	}
	h, okH := digits(hh)
	m, okM := digits(mm)
	if !okH || !okM || h > 23 || m > 59 {
		return 0, utils.NewValidationError("time", "%q is not a valid HH:MM time", s)
	}
	return TimeOfDay(h*60 + m), nil
}

func digits(s string) (int, bool) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// String renders HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Valid reports whether t lies within one day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < minutesPerDay
}

// ValidateDate checks a YYYY-MM-DD calendar date.
func ValidateDate(date string) error {
	if _, err := time.Parse(utils.DateLayout, date); err != nil {
		return utils.NewValidationError("date", "%q is not a valid YYYY-MM-DD date", date)
	}
	return nil
}
