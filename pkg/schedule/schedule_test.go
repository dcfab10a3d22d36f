package schedule

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "time/tzdata"
)

func gtfsArchive(t *testing.T, files map[string][]string) []byte {
	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)
	for filename, content := range files {
		f, err := w.Create(filename)
		require.NoError(t, err)
		_, err = f.Write([]byte(strings.Join(content, "\n")))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func babylonStore(t *testing.T) *MemoryStore {
	store, err := ParseGTFS(gtfsArchive(t, map[string][]string{
		"agency.txt": {
			"agency_id,agency_name,agency_url,agency_timezone",
			"LI,Long Island Rail Road,https://new.mta.info,America/New_York",
		},
		"routes.txt": {
			"route_id,agency_id,route_short_name,route_long_name,route_type",
			"1,LI,,Babylon Branch,2",
		},
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"237,Penn Station,40.750638,-73.993899",
			"102,Jamaica,40.699349,-73.808701",
			"27,Babylon,40.700700,-73.323750",
		},
		"calendar.txt": {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"WKD,1,1,1,1,1,0,0,20240101,20241231",
		},
		"trips.txt": {
			"route_id,service_id,trip_id,trip_short_name,direction_id",
			"1,WKD,GO103_1701,1701,0",
			"1,WKD,GO103_2701,2701,0",
		},
		"stop_times.txt": {
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
			"GO103_1701,17:00:00,17:00:00,237,1",
			"GO103_1701,17:20:00,17:21:00,102,2",
			"GO103_1701,18:05:00,18:05:00,27,3",
			"GO103_2701,23:50:00,23:50:00,237,1",
			"GO103_2701,24:10:00,24:11:00,102,2",
			"GO103_2701,25:00:00,25:00:00,27,3",
		},
	}))
	require.NoError(t, err)

	return store
}

func newYork(t *testing.T) *time.Location {
	location, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return location
}

func TestParseGTFS(t *testing.T) {
	store := babylonStore(t)
	ctx := context.Background()

	stop, err := store.GetStop(ctx, "237")
	require.NoError(t, err)
	assert.Equal(t, "Penn Station", stop.PrimaryName)
	assert.Equal(t, "237", stop.StatusID)
	assert.True(t, stop.SupportsRealtime())
	require.NotNil(t, stop.Location)
	assert.InDelta(t, -73.993899, stop.Location.Coordinates[0], 0.000001)

	route, err := store.GetRoute(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Babylon Branch", route.LongName)

	_, err = store.GetStop(ctx, "999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetTripRespectsCalendar(t *testing.T) {
	store := babylonStore(t)
	ctx := context.Background()
	location := newYork(t)

	monday := time.Date(2024, 1, 8, 0, 0, 0, 0, location)
	trip, err := store.GetTrip(ctx, "GO103_1701", monday)
	require.NoError(t, err)

	assert.Equal(t, "1701", trip.ShortName)
	assert.Equal(t, monday, trip.ServiceDate)
	require.NotNil(t, trip.Route)
	assert.Equal(t, "Babylon Branch", trip.Route.LongName)
	require.NotNil(t, trip.DirectionID)
	assert.Equal(t, 0, *trip.DirectionID)
	require.Len(t, trip.StopTimes, 3)
	assert.Equal(t, "Babylon", trip.DestinationStopTime().Stop.PrimaryName)

	departure, ok := trip.DepartureAt("102")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 8, 17, 21, 0, 0, location), departure)

	saturday := time.Date(2024, 1, 13, 0, 0, 0, 0, location)
	_, err = store.GetTrip(ctx, "GO103_1701", saturday)
	assert.ErrorIs(t, err, ErrNotFound)

	byShortName, err := store.GetTripByShortName(ctx, "1701", monday)
	require.NoError(t, err)
	assert.Equal(t, "GO103_1701", byShortName.PrimaryIdentifier)
}

func TestGetTripByDeparture(t *testing.T) {
	store := babylonStore(t)
	ctx := context.Background()
	location := newYork(t)

	trip, err := store.GetTripByDeparture(ctx, "237", "27", time.Date(2024, 1, 8, 17, 0, 0, 0, location))
	require.NoError(t, err)
	assert.Equal(t, "GO103_1701", trip.PrimaryIdentifier)

	trip, err = store.GetTripByDeparture(ctx, "237", "102", time.Date(2024, 1, 8, 23, 50, 0, 0, location))
	require.NoError(t, err)
	assert.Equal(t, "GO103_2701", trip.PrimaryIdentifier)

	// After midnight the trip keeps the previous service day
	trip, err = store.GetTripByDeparture(ctx, "102", "27", time.Date(2024, 1, 9, 0, 11, 0, 0, location))
	require.NoError(t, err)
	assert.Equal(t, "GO103_2701", trip.PrimaryIdentifier)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, location), trip.ServiceDate)

	// Reverse direction is not a departure
	_, err = store.GetTripByDeparture(ctx, "27", "237", time.Date(2024, 1, 8, 18, 5, 0, 0, location))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetNextStops(t *testing.T) {
	store := babylonStore(t)
	ctx := context.Background()

	stops, err := store.GetNextStops(ctx, "237")
	require.NoError(t, err)

	var ids []string
	for _, stop := range stops {
		ids = append(ids, stop.PrimaryIdentifier)
	}
	assert.Equal(t, []string{"102", "27"}, ids)

	stops, err = store.GetNextStops(ctx, "27")
	require.NoError(t, err)
	assert.Empty(t, stops)

	_, err = store.GetNextStops(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetStopByName(t *testing.T) {
	store := babylonStore(t)

	stop, err := store.GetStopByName(context.Background(), "  penn   STATION ")
	require.NoError(t, err)
	assert.Equal(t, "237", stop.PrimaryIdentifier)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	store := babylonStore(t)
	ctx := context.Background()
	monday := time.Date(2024, 1, 8, 0, 0, 0, 0, newYork(t))

	stop, err := store.GetStop(ctx, "237")
	require.NoError(t, err)
	stop.PrimaryName = "Moynihan"

	trip, err := store.GetTrip(ctx, "GO103_1701", monday)
	require.NoError(t, err)
	trip.StopTimes[0].StopRef = "changed"

	again, err := store.GetStop(ctx, "237")
	require.NoError(t, err)
	assert.Equal(t, "Penn Station", again.PrimaryName)

	tripAgain, err := store.GetTrip(ctx, "GO103_1701", monday)
	require.NoError(t, err)
	assert.Equal(t, "237", tripAgain.StopTimes[0].StopRef)
}
