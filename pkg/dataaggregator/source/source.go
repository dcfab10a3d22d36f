package source

import (
	"context"
	"time"

	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
	"github.com/right-track/right-track-agency-lirr/pkg/schedule"
)

// Source is a single live data feed able to report on an origin stop
type Source interface {
	GetName() string
	Load(ctx context.Context, query Query) (*Result, error)
}

type Query struct {
	Origin *ctdf.Stop
	Store  schedule.Store
	Now    time.Time
}

type Result struct {
	Source  ctdf.RealtimeRecordSource
	Updated time.Time

	// Records are the live observations at the origin
	Records []*ctdf.RealtimeRecord

	// Trips holds the full live picture of each trip in Records, when the source has one
	Trips map[string]*ctdf.RealtimeTrip
}

func (r *Result) GetTrip(tripID string) *ctdf.RealtimeTrip {
	if r == nil || r.Trips == nil {
		return nil
	}
	return r.Trips[tripID]
}
