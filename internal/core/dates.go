package core

import "time"

// Accepted date input layouts, tried in order.
var dateLayouts = []string{
	"02-01-2006", // DD-MM-YYYY
	"2006-01-02", // YYYY-MM-DD
}

// DisplayDateLayout is the canonical form dates are echoed back in.
const DisplayDateLayout = "02-01-2006"

// ParseDate parses a user-supplied date in DD-MM-YYYY or YYYY-MM-DD form.
// Any other input is a validation error.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, NewValidationError("dates must be DD-MM-YYYY or YYYY-MM-DD, got %q", s)
}
