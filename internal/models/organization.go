package models

import "time"

// Organization is created on-demand by the event worker when event
// metadata carries company info, and linked to a Lead that lacks one.
type Organization struct {
	ID          string
	Name        string
	Domain      string
	Industry    string
	Size        string
	Country     string
	ExternalIDs map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
