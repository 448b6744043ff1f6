package models

import "strings"

// FullName joins the non-empty name parts with single spaces.
func FullName(parts ...string) string {
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// Event is a dashboard notification.
type Event struct {
	Name    string      `json:"event"`
	Payload interface{} `json:"data"`
}
