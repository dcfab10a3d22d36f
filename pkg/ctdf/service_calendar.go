package ctdf

import (
	"time"
)

type ServiceCalendar struct {
	PrimaryIdentifier string

	// Indexed by time.Weekday
	Weekdays [7]bool

	StartDate time.Time
	EndDate   time.Time

	AddedDates   []time.Time
	RemovedDates []time.Time
}

func (s *ServiceCalendar) MatchDate(date time.Time) bool {
	if s == nil {
		return false
	}

	for _, removed := range s.RemovedDates {
		if sameDay(removed, date) {
			return false
		}
	}

	for _, added := range s.AddedDates {
		if sameDay(added, date) {
			return true
		}
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	if !s.StartDate.IsZero() {
		start := time.Date(s.StartDate.Year(), s.StartDate.Month(), s.StartDate.Day(), 0, 0, 0, 0, time.UTC)
		if day.Before(start) {
			return false
		}
	}
	if !s.EndDate.IsZero() {
		end := time.Date(s.EndDate.Year(), s.EndDate.Month(), s.EndDate.Day(), 0, 0, 0, 0, time.UTC)
		if day.After(end) {
			return false
		}
	}

	return s.Weekdays[date.Weekday()]
}

func (s *ServiceCalendar) RunsOnWeekday() bool {
	for day := time.Monday; day <= time.Friday; day++ {
		if s.Weekdays[day] {
			return true
		}
	}
	return false
}

func (s *ServiceCalendar) RunsOnWeekend() bool {
	return s.Weekdays[time.Saturday] || s.Weekdays[time.Sunday]
}

func sameDay(a time.Time, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
