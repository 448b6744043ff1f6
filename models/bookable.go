package models

// BookableInterval is implemented by every record that occupies a calendar
// window for an owner (doctor or staff executor) on one day.
type BookableInterval interface {
	IntervalID() string
	IntervalDate() string  // YYYY-MM-DD
	IntervalOwner() string // doctor or executor name
	IntervalTimes() (start, end string)
}

var (
	_ BookableInterval = Task{}
	_ BookableInterval = Appointment{}
)
