package models

import "time"

// Task is an internal, non-clinical booking on the shared calendar.
type Task struct {
	ID          string    `bson:"_id" json:"_id"`
	TaskTitle   string    `bson:"taskTitle" json:"taskTitle"`
	Description string    `bson:"description" json:"description"`
	Executor    string    `bson:"executor" json:"executor"`
	Date        string    `bson:"date" json:"date"`
	StartTime   string    `bson:"startTime" json:"startTime"`
	EndTime     string    `bson:"endTime" json:"endTime"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (t Task) IntervalID() string    { return t.ID }
func (t Task) IntervalDate() string  { return t.Date }
func (t Task) IntervalOwner() string { return t.Executor }
func (t Task) IntervalTimes() (string, string) {
	return t.StartTime, t.EndTime
}

// TaskInput is the create and full-update payload.
type TaskInput struct {
	TaskTitle   string `json:"taskTitle" binding:"required"`
	Description string `json:"description"`
	Executor    string `json:"executor" binding:"required"`
	Date        string `json:"date" binding:"required,ymd"`
	StartTime   string `json:"startTime" binding:"required,hhmm"`
	EndTime     string `json:"endTime" binding:"required,hhmm"`
}

// TaskReschedule moves a task to a new window.
type TaskReschedule struct {
	Date      string `json:"date" binding:"required,ymd"`
	StartTime string `json:"startTime" binding:"required,hhmm"`
	EndTime   string `json:"endTime" binding:"required,hhmm"`
}

// TaskQuery filters task listings.
type TaskQuery struct {
	Date      string
	StartDate string
	EndDate   string
	Executor  string
}
