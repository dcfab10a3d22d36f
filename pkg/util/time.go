package util

import (
	"time"

	iso8601 "github.com/senseyeio/duration"
)

const ServiceDateFormat = "20060102"

func AddTimeToDate(date time.Time, sourceTime time.Time) time.Time {
	newDateTime := time.Date(date.Year(), date.Month(), date.Day(), sourceTime.Hour(), sourceTime.Minute(), sourceTime.Second(), sourceTime.Nanosecond(), date.Location())

	return newDateTime
}

// StartOfDay returns midnight of the day containing t, in t's location
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func NextDay(t time.Time) time.Time {
	nextDayDuration, _ := iso8601.ParseISO8601("P1D")

	return nextDayDuration.Shift(t)
}

func PreviousDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, -1)
}

// ServiceDayOrigin is the instant GTFS stop time offsets count from, noon minus 12 hours.
// It differs from midnight on days the clocks change.
func ServiceDayOrigin(serviceDate time.Time) time.Time {
	noon := time.Date(serviceDate.Year(), serviceDate.Month(), serviceDate.Day(), 12, 0, 0, 0, serviceDate.Location())
	return noon.Add(-12 * time.Hour)
}

// ParseServiceDate parses a YYYYMMDD date into midnight in the given location
func ParseServiceDate(value string, location *time.Location) (time.Time, error) {
	return time.ParseInLocation(ServiceDateFormat, value, location)
}
