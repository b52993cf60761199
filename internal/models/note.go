// Package models defines the domain types for Daybook.
package models

import "time"

// DailyNote is the persisted document for one calendar date.
type DailyNote struct {
	Date        string   `json:"date"`
	HTMLContent string   `json:"html_content"`
	Images      []string `json:"images"`
}

// FileMetadata is a lightweight representation returned by storage listings.
type FileMetadata struct {
	Name      string    `json:"name"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Presence is the display state of a calendar date.
type Presence string

const (
	PresenceEmpty   Presence = "empty"
	PresenceHasNote Presence = "has-note"
)
