package schedule

import (
	"strings"

	"clinicdesk/models"
	"clinicdesk/utils"

	"github.com/samber/lo"
)

// Slot is a validated half-open window [Start, End) booked against Owner on Date.
type Slot struct {
	ID    string
	Date  string
	Start TimeOfDay
	End   TimeOfDay
	Owner string
}

// NewSlot validates the raw fields. Bad input is a ValidationError, never a
// silent "no conflict".
func NewSlot(id, date, start, end, owner string) (Slot, error) {
	if err := ValidateDate(date); err != nil {
		return Slot{}, err
	}
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Slot{}, utils.NewValidationError("startTime", "%q is not a valid HH:MM time", start)
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Slot{}, utils.NewValidationError("endTime", "%q is not a valid HH:MM time", end)
	}
	if e <= s {
		return Slot{}, utils.NewValidationError("endTime", "end time %s must be after start time %s", e, s)
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return Slot{}, utils.NewValidationError("owner", "doctor or executor is required")
	}
	return Slot{ID: id, Date: date, Start: s, End: e, Owner: owner}, nil
}

// SlotOf converts a stored interval.
func SlotOf(b models.BookableInterval) (Slot, error) {
	start, end := b.IntervalTimes()
	return NewSlot(b.IntervalID(), b.IntervalDate(), start, end, b.IntervalOwner())
}

// Overlaps applies s1 < e2 && e1 > s2 on the same date and owner. Touching
// endpoints do not overlap.
func (s Slot) Overlaps(o Slot) bool {
	return s.Date == o.Date &&
		s.Owner == o.Owner &&
		s.Start < o.End &&
		s.End > o.Start
}

// Conflict describes s as the interval a candidate collided with.
func (s Slot) Conflict() *utils.ConflictError {
	return &utils.ConflictError{
		ID:    s.ID,
		Owner: s.Owner,
		Date:  s.Date,
		Start: s.Start.String(),
		End:   s.End.String(),
	}
}

// FindConflict returns the first existing interval overlapping candidate.
// The interval identified by excludeID and intervals with unparseable times
// are skipped.
func FindConflict(candidate Slot, existing []models.BookableInterval, excludeID string) (*Slot, bool) {
	for _, b := range existing {
		if excludeID != "" && b.IntervalID() == excludeID {
			continue
		}
		other, err := SlotOf(b)
		if err != nil {
			continue
		}
		if candidate.Overlaps(other) {
			return &other, true
		}
	}
	return nil, false
}

// HasConflict reports whether candidate overlaps any existing interval.
func HasConflict(candidate Slot, existing []models.BookableInterval, excludeID string) bool {
	_, found := FindConflict(candidate, existing, excludeID)
	return found
}

// Key groups intervals sharing a day and an owner.
type Key struct {
	Date  string
	Owner string
}

// Index groups intervals by (date, owner) so a candidate is only compared
// with its siblings.
type Index map[Key][]models.BookableInterval

// NewIndex builds an Index over intervals.
func NewIndex(intervals []models.BookableInterval) Index {
	return lo.GroupBy(intervals, func(b models.BookableInterval) Key {
		return Key{Date: b.IntervalDate(), Owner: strings.TrimSpace(b.IntervalOwner())}
	})
}

// FindConflict checks candidate against its (date, owner) group only.
func (ix Index) FindConflict(candidate Slot, excludeID string) (*Slot, bool) {
	return FindConflict(candidate, ix[Key{Date: candidate.Date, Owner: candidate.Owner}], excludeID)
}
