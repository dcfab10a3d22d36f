package dataaggregator

import (
	"testing"
	"time"

	"github.com/right-track/right-track-agency-lirr/pkg/config"
	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
	"github.com/stretchr/testify/assert"
)

var testWindows = config.WindowSettings{
	DepartedGrace: 5 * time.Minute,
	MaxDeparted:   10 * time.Minute,
	MaxFuture:     3 * time.Hour,
}

func departureAt(scheduled time.Time, label string, terminal string) *ctdf.Departure {
	return &ctdf.Departure{
		ScheduledDeparture: scheduled,
		Trip: &ctdf.Trip{
			PrimaryIdentifier: "T1",
			StopTimes: []*ctdf.StopTime{
				{StopRef: "ORIGIN", StopSequence: 1},
				{StopRef: terminal, StopSequence: 2},
			},
		},
		Status: &ctdf.DepartureStatus{Label: label},
	}
}

func TestKeepBoundaries(t *testing.T) {
	now := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	origin := &ctdf.Stop{PrimaryIdentifier: "ORIGIN"}

	tests := []struct {
		name     string
		offset   time.Duration
		label    string
		expected bool
	}{
		{"exactly max departed", -10 * time.Minute, ctdf.DepartureStatusOnTime, false},
		{"just inside max departed", -10*time.Minute + time.Second, ctdf.DepartureStatusOnTime, true},
		{"exactly max future", 3 * time.Hour, ctdf.DepartureStatusOnTime, true},
		{"just past max future", 3*time.Hour + time.Second, ctdf.DepartureStatusOnTime, false},
		{"now", 0, ctdf.DepartureStatusScheduled, true},
		{"departed inside grace", -5 * time.Minute, ctdf.DepartureStatusDeparted, true},
		{"departed past grace", -5*time.Minute - time.Second, ctdf.DepartureStatusDeparted, false},
		{"arrived elsewhere past grace", -6 * time.Minute, ctdf.DepartureStatusArrived, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			departure := departureAt(now.Add(test.offset), test.label, "TERMINAL")

			assert.Equal(t, test.expected, Keep(departure, origin, now, testWindows))
		})
	}
}

func TestKeepUsesEstimatedDeparture(t *testing.T) {
	now := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	origin := &ctdf.Stop{PrimaryIdentifier: "ORIGIN"}

	departure := departureAt(now.Add(-15*time.Minute), "Late 10", "TERMINAL")
	departure.Status.EstimatedDeparture = now.Add(-5 * time.Minute)

	assert.True(t, Keep(departure, origin, now, testWindows))
}

func TestKeepDepartedAtTerminal(t *testing.T) {
	now := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	origin := &ctdf.Stop{PrimaryIdentifier: "ORIGIN"}

	assert.False(t, Keep(departureAt(now.Add(-20*time.Minute), ctdf.DepartureStatusDeparted, "ORIGIN"), origin, now, testWindows))
	assert.True(t, Keep(departureAt(now.Add(-3*time.Minute), ctdf.DepartureStatusDeparted, "ORIGIN"), origin, now, testWindows))

	assert.False(t, Keep(departureAt(now.Add(-6*time.Minute), ctdf.DepartureStatusArrived, "ORIGIN"), origin, now, testWindows))
	assert.True(t, Keep(departureAt(now.Add(-3*time.Minute), ctdf.DepartureStatusArrived, "ORIGIN"), origin, now, testWindows))
}

func TestFilterDeparturesIdempotent(t *testing.T) {
	now := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	origin := &ctdf.Stop{PrimaryIdentifier: "ORIGIN"}

	var departures []*ctdf.Departure
	for offset := -30 * time.Minute; offset <= 4*time.Hour; offset += 7 * time.Minute {
		departures = append(departures,
			departureAt(now.Add(offset), ctdf.DepartureStatusOnTime, "TERMINAL"),
			departureAt(now.Add(offset), ctdf.DepartureStatusDeparted, "ORIGIN"),
		)
	}

	once := FilterDepartures(departures, origin, now, testWindows)
	onceCopy := append([]*ctdf.Departure{}, once...)

	twice := FilterDepartures(once, origin, now, testWindows)

	assert.NotEmpty(t, onceCopy)
	assert.Equal(t, onceCopy, twice)
	for _, departure := range twice {
		assert.True(t, Keep(departure, origin, now, testWindows))
	}
}
