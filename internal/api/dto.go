package api

import (
	"github.com/starford/daybook/internal/calendar"
	"github.com/starford/daybook/internal/editor"
	"github.com/starford/daybook/internal/index"
	"github.com/starford/daybook/internal/journal"
	"github.com/starford/daybook/internal/richtext"
)

// PutDayRequest is the request body for a content change.
type PutDayRequest struct {
	HTMLContent string `json:"html_content" example:"<p>Dear diary</p>"`
}

// Day is the day response type (aliased from the domain layer).
type Day = journal.Day

// DayChange is the result of a content change (aliased from the domain layer).
type DayChange = journal.Change

// DayListResponse wraps catalog listings.
type DayListResponse struct {
	Days []index.DayRow `json:"days" validate:"required"`
}

// DeleteAllResponse lists the dates removed by a bulk delete.
type DeleteAllResponse struct {
	Deleted []string `json:"deleted" validate:"required"`
}

// MonthResponse is the month grid (aliased from the domain layer).
type MonthResponse = calendar.Month

// ImageUploadResponse is returned after an image upload or import.
type ImageUploadResponse struct {
	Filename string `json:"filename" example:"photo.png" validate:"required"`
	Size     int64  `json:"size,omitempty" example:"12345"`
	URL      string `json:"url" example:"/images/photo.png" validate:"required"`
	Path     string `json:"path,omitempty" example:"/home/me/Documents/.JOURNAL/Images/photo.png"`
}

// ImportImageRequest names a local file to copy into the image store.
type ImportImageRequest struct {
	Path string `json:"path" example:"/home/me/Pictures/photo.png" validate:"required"`
}

// EditorRequest carries the editor state plus the operation's argument.
// Anchor defaults to Position when absent.
type EditorRequest struct {
	HTML      string           `json:"html"`
	Position  int              `json:"position"`
	Anchor    *int             `json:"anchor,omitempty"`
	Pending   *richtext.Format `json:"pending,omitempty"`
	Action    string           `json:"action,omitempty" example:"bold"`
	Size      string           `json:"size,omitempty" example:"18"`
	Direction string           `json:"direction,omitempty" example:"up"`
	Key       string           `json:"key,omitempty" example:"backspace"`
	Text      string           `json:"text,omitempty"`
	Path      string           `json:"path,omitempty"`
}

// EditorResponse is the editor state after the operation.
type EditorResponse struct {
	HTML          string                `json:"html"`
	Position      int                   `json:"position"`
	Anchor        int                   `json:"anchor"`
	Pending       *richtext.Format      `json:"pending,omitempty"`
	Snapshot      editor.FormatSnapshot `json:"snapshot"`
	RemovedImage  string                `json:"removed_image,omitempty"`
	RemovedImages []string              `json:"removed_images,omitempty"`
}
