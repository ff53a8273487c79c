package utils

import (
	"time"
)

const (
	EventDateLayout = "2006-01-02"
	EventTimeLayout = "15:04"
)

// ValidEventDate reports whether s is a YYYY-MM-DD date.
func ValidEventDate(s string) bool {
	_, err := time.Parse(EventDateLayout, s)
	return err == nil
}

// ValidEventTime reports whether s is an HH:MM 24h time.
func ValidEventTime(s string) bool {
	_, err := time.Parse(EventTimeLayout, s)
	return err == nil
}
