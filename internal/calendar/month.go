package calendar

import (
	"time"

	"github.com/starford/daybook/internal/models"
)

// Day colours used by the month view.
const (
	ColorHasNote         = "yellow"
	ColorEmpty           = "white"
	ColorHasNoteSelected = "rgb(225,220,22)"
	ColorEmptySelected   = "rgb(225,250,250)"
)

// Month is the grid shown for one calendar month: whole Sunday-first weeks,
// padded with days from the neighbouring months.
type Month struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Label string `json:"label"`
	Weeks []Week `json:"weeks"`
}

// Week is one row of seven days.
type Week struct {
	Days []Day `json:"days"`
}

// Day is one cell. InMonth is false for padding days.
type Day struct {
	Date     string          `json:"date"`
	Day      int             `json:"day"`
	InMonth  bool            `json:"in_month"`
	Presence models.Presence `json:"presence"`
	Color    string          `json:"color"`
	Selected bool            `json:"selected"`
}

// Color returns the display colour for a day.
func Color(p models.Presence, selected bool) string {
	switch {
	case p == models.PresenceHasNote && selected:
		return ColorHasNoteSelected
	case p == models.PresenceHasNote:
		return ColorHasNote
	case selected:
		return ColorEmptySelected
	}
	return ColorEmpty
}

// Month builds a Sunday-first grid of whole weeks covering the month.
// selected may be empty.
func (s *Synchronizer) Month(year int, month time.Month, selected string) Month {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)
	gridStart := monthStart.AddDate(0, 0, -int(monthStart.Weekday()))

	s.mu.RLock()
	defer s.mu.RUnlock()

	var weeks []Week
	var days []Day
	for day := gridStart; ; day = day.AddDate(0, 0, 1) {
		key := models.DateKey(day)
		p := models.PresenceEmpty
		if v, ok := s.dates[key]; ok {
			p = v
		}
		isSelected := key == selected
		days = append(days, Day{
			Date:     key,
			Day:      day.Day(),
			InMonth:  day.Month() == monthStart.Month(),
			Presence: p,
			Color:    Color(p, isSelected),
			Selected: isSelected,
		})

		if len(days) == 7 {
			weeks = append(weeks, Week{Days: days})
			days = nil
			if !day.Before(monthEnd) && day.Weekday() == time.Saturday {
				break
			}
		}
	}

	return Month{
		Year:  monthStart.Year(),
		Month: int(monthStart.Month()),
		Label: monthStart.Format("January 2006"),
		Weeks: weeks,
	}
}
