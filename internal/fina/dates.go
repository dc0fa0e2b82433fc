package fina

import (
	"fmt"
	"time"
)

// ParseDate converts a calendar date string to epoch seconds using a
// caller-supplied Go reference layout, interpreted in UTC.
func ParseDate(value, layout string) (int64, error) {
	if layout == "" {
		layout = time.DateTime
	}
	t, err := time.ParseInLocation(layout, value, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%w: date %q does not match layout %q", ErrValidation, value, layout)
	}
	return t.Unix(), nil
}
