package editor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/daybook/internal/richtext"
)

// ErrInvalidSize is returned by ParseSize for input that is not a positive integer.
var ErrInvalidSize = errors.New("editor: invalid font size")

// CommonSizes are the sizes offered by the size picker.
var CommonSizes = []int{8, 10, 12, 14, 16, 18, 24, 36, 48, 72}

// Action names a toggleable character attribute.
type Action int

const (
	Bold Action = iota
	Italic
	Underline
	StrikeOut
)

var actionNames = map[Action]string{
	Bold:      "bold",
	Italic:    "italic",
	Underline: "underline",
	StrikeOut: "strikeout",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "Action(" + strconv.Itoa(int(a)) + ")"
}

// ParseAction accepts the lower-case attribute names used by the HTTP and MCP
// surfaces.
func ParseAction(s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "strike" || s == "strikethrough" {
		s = "strikeout"
	}
	for a, name := range actionNames {
		if name == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("editor: unknown action %q", s)
}

// ApplyToggle flips exactly the attribute named by a and leaves the rest of f
// untouched.
func ApplyToggle(f richtext.Format, a Action) richtext.Format {
	return withAttr(f, a, !attr(f, a))
}

func attr(f richtext.Format, a Action) bool {
	switch a {
	case Bold:
		return f.Bold
	case Italic:
		return f.Italic
	case Underline:
		return f.Underline
	case StrikeOut:
		return f.StrikeOut
	}
	return false
}

func withAttr(f richtext.Format, a Action, v bool) richtext.Format {
	switch a {
	case Bold:
		f.Bold = v
	case Italic:
		f.Italic = v
	case Underline:
		f.Underline = v
	case StrikeOut:
		f.StrikeOut = v
	}
	return f
}

// ParseSize validates size input from the picker. Only positive integers are
// accepted.
func ParseSize(input string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, input)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	return n, nil
}

// FormatSnapshot is what the toggle controls display for the current cursor.
type FormatSnapshot struct {
	Bold      bool   `json:"bold"`
	Italic    bool   `json:"italic"`
	Underline bool   `json:"underline"`
	StrikeOut bool   `json:"strikeout"`
	Size      string `json:"size"`
	Mixed     bool   `json:"mixed"`
}
