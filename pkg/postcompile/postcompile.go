package postcompile

import (
	"fmt"

	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
	"github.com/right-track/right-track-agency-lirr/pkg/peak"
	"github.com/right-track/right-track-agency-lirr/pkg/schedule"
	"github.com/rs/zerolog/log"
)

const stopURLFormat = "http://lirr42.mta.info/stationInfo.php?id=%s"

// RouteLongNames maps the short name of every branch to its long name
var RouteLongNames = map[string]string{
	"Babylon":         "Babylon Branch",
	"Hempstead":       "Hempstead Branch",
	"Oyster Bay":      "Oyster Bay Branch",
	"Ronkonkoma":      "Ronkonkoma Branch",
	"Montauk":         "Montauk Branch",
	"Long Beach":      "Long Beach Branch",
	"Far Rockaway":    "Far Rockaway Branch",
	"West Hempstead":  "West Hempstead Branch",
	"Port Washington": "Port Washington Branch",
	"Port Jefferson":  "Port Jefferson Branch",
	"Belmont":         "Belmont Branch",
	"City Zone":       "City Terminal Zone",
}

var Directions = []ctdf.Direction{
	{DirectionID: 0, Description: "Eastbound"},
	{DirectionID: 1, Description: "Westbound"},
}

func StopURL(stopID string) string {
	return fmt.Sprintf(stopURLFormat, stopID)
}

// ApplyToStore makes the same corrections as Apply to a schedule loaded straight from a GTFS file
func ApplyToStore(store *schedule.MemoryStore) {
	routes := 0
	for _, route := range store.Routes() {
		if longName, exists := RouteLongNames[route.ShortName]; exists {
			route.LongName = longName
			routes++
		}
	}

	stops := store.Stops()
	for _, stop := range stops {
		stop.URL = StopURL(stop.PrimaryIdentifier)
	}

	log.Info().Int("routes", routes).Int("stops", len(stops)).Msg("Applied schedule corrections")
}

// Compile corrects a freshly loaded schedule and marks its peak trips
func Compile(store *schedule.MemoryStore, holidaysPath string) error {
	ApplyToStore(store)

	classifier := &peak.Classifier{}
	if holidaysPath != "" {
		holidays, err := peak.LoadHolidays(holidaysPath)
		if err != nil {
			return fmt.Errorf("loading holidays %s: %w", holidaysPath, err)
		}
		classifier.Holidays = holidays
	}

	peakTrips := classifier.ClassifyAll(store.Trips(), store.Services())
	log.Info().Int("peak", peakTrips).Msg("Classified peak trips")

	return nil
}
