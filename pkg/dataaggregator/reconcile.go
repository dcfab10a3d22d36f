package dataaggregator

import (
	"fmt"
	"time"

	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
)

// Delays under a minute are rounding noise
const MinimumReportedDelay = 60 * time.Second

// Signals are everything known about the state of one departure, strongest first
type Signals struct {
	// Label is an explicit status from a live source and is never overridden
	Label string

	FeedDelay  *time.Duration
	BoardDelay *time.Duration

	// Departed is the board saying the train has already left
	Departed bool

	ScheduledDeparture time.Time
	Track              string
	Remark             string
}

// Reconcile combines the live signals of a departure into its status
func Reconcile(signals Signals) *ctdf.DepartureStatus {
	feedDelay := clampDelay(signals.FeedDelay)
	boardDelay := clampDelay(signals.BoardDelay)

	var label string
	var delay time.Duration

	switch {
	case feedDelay == nil && boardDelay == nil:
		label = ctdf.DepartureStatusScheduled
	case feedDelay != nil && boardDelay != nil && delayMinutes(*feedDelay) != delayMinutes(*boardDelay):
		low, high := *feedDelay, *boardDelay
		if low > high {
			low, high = high, low
		}

		label = fmt.Sprintf("%s %d-%d", ctdf.DepartureStatusLatePrefix, delayMinutes(low), delayMinutes(high))
		delay = low
	default:
		delay = lowestDelay(feedDelay, boardDelay)

		if delay == 0 {
			label = ctdf.DepartureStatusOnTime
		} else {
			label = fmt.Sprintf("%s %d", ctdf.DepartureStatusLatePrefix, delayMinutes(delay))
		}
	}

	if signals.Departed {
		delay = 0
		label = ctdf.DepartureStatusDeparted
	}

	if signals.Label != "" {
		label = signals.Label
	}

	status := &ctdf.DepartureStatus{
		Label:        label,
		DelaySeconds: int(delay / time.Second),
		Track:        signals.Track,
		Remark:       signals.Remark,
	}
	if !signals.ScheduledDeparture.IsZero() {
		status.EstimatedDeparture = signals.ScheduledDeparture.Add(delay)
	}

	return status
}

func clampDelay(delay *time.Duration) *time.Duration {
	if delay == nil {
		return nil
	}

	clamped := *delay
	if clamped < MinimumReportedDelay {
		clamped = 0
	}
	return &clamped
}

func lowestDelay(delays ...*time.Duration) time.Duration {
	var lowest *time.Duration
	for _, delay := range delays {
		if delay != nil && (lowest == nil || *delay < *lowest) {
			lowest = delay
		}
	}

	if lowest == nil {
		return 0
	}
	return *lowest
}

func delayMinutes(delay time.Duration) int {
	return int(delay / time.Minute)
}
