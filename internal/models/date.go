package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/starford/daybook/internal/apperr"
)

// DateLayout is the canonical date key layout (ISO-8601 calendar date).
const DateLayout = "2006-01-02"

// ValidDate reports whether s is already a canonical date key.
func ValidDate(s string) bool {
	t, err := time.Parse(DateLayout, s)
	return err == nil && t.Format(DateLayout) == s
}

// NormalizeDate turns a loosely written date ("2026/10/19", "Oct 19, 2026")
// into its canonical key.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty", apperr.ErrInvalidDate)
	}
	if ValidDate(s) {
		return s, nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", apperr.ErrInvalidDate, s)
	}
	return DateKey(t), nil
}

// DateKey formats t as a canonical date key.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}
