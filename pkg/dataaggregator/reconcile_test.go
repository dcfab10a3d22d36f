package dataaggregator

import (
	"testing"
	"time"

	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
	"github.com/stretchr/testify/assert"
)

func delayOf(d time.Duration) *time.Duration {
	return &d
}

func TestReconcile(t *testing.T) {
	scheduled := time.Date(2024, time.January, 1, 17, 30, 0, 0, time.UTC)

	tests := []struct {
		name          string
		signals       Signals
		expectedLabel string
		expectedDelay int
	}{
		{
			name:          "no signals",
			signals:       Signals{},
			expectedLabel: ctdf.DepartureStatusScheduled,
			expectedDelay: 0,
		},
		{
			name:          "feed on time",
			signals:       Signals{FeedDelay: delayOf(0)},
			expectedLabel: ctdf.DepartureStatusOnTime,
			expectedDelay: 0,
		},
		{
			name:          "feed late",
			signals:       Signals{FeedDelay: delayOf(4 * time.Minute)},
			expectedLabel: "Late 4",
			expectedDelay: 240,
		},
		{
			name:          "board late",
			signals:       Signals{BoardDelay: delayOf(6 * time.Minute)},
			expectedLabel: "Late 6",
			expectedDelay: 360,
		},
		{
			name:          "sources agree",
			signals:       Signals{FeedDelay: delayOf(3*time.Minute + 20*time.Second), BoardDelay: delayOf(3 * time.Minute)},
			expectedLabel: "Late 3",
			expectedDelay: 180,
		},
		{
			name:          "sources disagree",
			signals:       Signals{FeedDelay: delayOf(0), BoardDelay: delayOf(6 * time.Minute)},
			expectedLabel: "Late 0-6",
			expectedDelay: 0,
		},
		{
			name:          "range ordered low to high",
			signals:       Signals{FeedDelay: delayOf(9 * time.Minute), BoardDelay: delayOf(5 * time.Minute)},
			expectedLabel: "Late 5-9",
			expectedDelay: 300,
		},
		{
			name:          "under a minute clamps",
			signals:       Signals{FeedDelay: delayOf(59 * time.Second)},
			expectedLabel: ctdf.DepartureStatusOnTime,
			expectedDelay: 0,
		},
		{
			name:          "negative clamps",
			signals:       Signals{FeedDelay: delayOf(-3 * time.Minute)},
			expectedLabel: ctdf.DepartureStatusOnTime,
			expectedDelay: 0,
		},
		{
			name:          "departed forces zero delay",
			signals:       Signals{FeedDelay: delayOf(8 * time.Minute), Departed: true},
			expectedLabel: ctdf.DepartureStatusDeparted,
			expectedDelay: 0,
		},
		{
			name:          "explicit label kept",
			signals:       Signals{Label: ctdf.DepartureStatusHeld, FeedDelay: delayOf(8 * time.Minute)},
			expectedLabel: ctdf.DepartureStatusHeld,
			expectedDelay: 480,
		},
		{
			name:          "explicit label beats departed",
			signals:       Signals{Label: ctdf.DepartureStatusCancelled, Departed: true},
			expectedLabel: ctdf.DepartureStatusCancelled,
			expectedDelay: 0,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			signals := test.signals
			signals.ScheduledDeparture = scheduled

			status := Reconcile(signals)

			assert.Equal(t, test.expectedLabel, status.Label)
			assert.Equal(t, test.expectedDelay, status.DelaySeconds)
			assert.GreaterOrEqual(t, status.DelaySeconds, 0)
			assert.Equal(t, scheduled.Add(time.Duration(test.expectedDelay)*time.Second), status.EstimatedDeparture)
		})
	}
}

func TestReconcileDelayNeverNegative(t *testing.T) {
	for seconds := -600; seconds <= 600; seconds += 15 {
		feed := time.Duration(seconds) * time.Second
		board := time.Duration(-seconds) * time.Second

		status := Reconcile(Signals{FeedDelay: &feed, BoardDelay: &board})

		assert.GreaterOrEqual(t, status.DelaySeconds, 0, "feed %s board %s", feed, board)
	}
}

func TestReconcileKeepsTrackAndRemark(t *testing.T) {
	status := Reconcile(Signals{
		Track:  "3",
		Remark: ctdf.DepartureRemarkUnscheduled,
	})

	assert.Equal(t, "3", status.Track)
	assert.Equal(t, ctdf.DepartureRemarkUnscheduled, status.Remark)
	assert.True(t, status.EstimatedDeparture.IsZero())
}
