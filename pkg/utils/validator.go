package utils

import (
	"fmt"
	"math"
	"regexp"
	"time"
)

const dateLayout = "2006-01-02"

// ValidateDateRange validates a start/end date pair in YYYY-MM-DD form
func ValidateDateRange(start, end string) error {
	startDate, err := time.Parse(dateLayout, start)
	if err != nil {
		return fmt.Errorf("invalid start date: %s", start)
	}

	endDate, err := time.Parse(dateLayout, end)
	if err != nil {
		return fmt.Errorf("invalid end date: %s", end)
	}

	if endDate.Before(startDate) {
		return fmt.Errorf("end date %s is before start date %s", end, start)
	}

	return nil
}

// ValidateHalfDayIncrement validates that a day count is a positive multiple
// of half a day
func ValidateHalfDayIncrement(days float64) error {
	if days <= 0 {
		return fmt.Errorf("days must be positive: %v", days)
	}

	doubled := days * 2
	if math.Abs(doubled-math.Round(doubled)) > 1e-9 {
		return fmt.Errorf("days must be in half-day increments: %v", days)
	}

	return nil
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	sanitized := regexp.MustCompile(`[\x00-\x1f\x7f]`).ReplaceAllString(s, "")
	return sanitized
}
