package entities

import "fmt"

// DatePrecision indicates how much of a FlexDate is meaningful.
type DatePrecision string

const (
	PrecisionYear  DatePrecision = "year"
	PrecisionMonth DatePrecision = "month"
	PrecisionDay   DatePrecision = "day"
)

// FlexDate is a calendar date with optional month and day components.
// A zero Year means the date is unset.
type FlexDate struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"`
	Day   int `json:"day,omitempty"`
}

// IsZero reports whether the date is unset.
func (d FlexDate) IsZero() bool {
	return d.Year == 0
}

// Precision returns the finest component the date carries.
func (d FlexDate) Precision() DatePrecision {
	switch {
	case d.Day != 0:
		return PrecisionDay
	case d.Month != 0:
		return PrecisionMonth
	default:
		return PrecisionYear
	}
}

// Valid reports whether the components form a usable date. An unset date
// is valid; a day without a month is not.
func (d FlexDate) Valid() bool {
	if d.IsZero() {
		return d.Month == 0 && d.Day == 0
	}
	if d.Month < 0 || d.Month > 12 || d.Day < 0 || d.Day > 31 {
		return false
	}
	if d.Day != 0 && d.Month == 0 {
		return false
	}
	return true
}

// String renders the date at its own precision (e.g. "1867", "1867-03",
// "1867-03-14"). Unset dates render as the empty string.
func (d FlexDate) String() string {
	switch {
	case d.IsZero():
		return ""
	case d.Day != 0:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	case d.Month != 0:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	default:
		return fmt.Sprintf("%04d", d.Year)
	}
}
