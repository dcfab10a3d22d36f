package gtfsrt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/right-track/right-track-agency-lirr/pkg/cachedresults"
	"github.com/right-track/right-track-agency-lirr/pkg/config"
	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
	"github.com/right-track/right-track-agency-lirr/pkg/dataaggregator/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
)

var t0 = time.Date(2024, 1, 1, 17, 30, 0, 0, time.UTC)

func withRailroadStatus(stopTimeUpdate *gtfs.TripUpdate_StopTimeUpdate, track string, trainStatus string) *gtfs.TripUpdate_StopTimeUpdate {
	var message []byte
	message = protowire.AppendTag(message, railroadTrackField, protowire.BytesType)
	message = protowire.AppendString(message, track)
	message = protowire.AppendTag(message, railroadTrainStatusField, protowire.BytesType)
	message = protowire.AppendString(message, trainStatus)

	var unknown []byte
	unknown = protowire.AppendTag(unknown, railroadStopTimeUpdateField, protowire.BytesType)
	unknown = protowire.AppendBytes(unknown, message)
	stopTimeUpdate.ProtoReflect().SetUnknown(unknown)

	return stopTimeUpdate
}

func scenarioFeed(t *testing.T) []byte {
	feedMessage := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Timestamp:           proto.Uint64(uint64(t0.Add(-time.Minute).Unix())),
		},
		Entity: []*gtfs.FeedEntity{
			{
				Id: proto.String("123_T"),
				TripUpdate: &gtfs.TripUpdate{
					Trip: &gtfs.TripDescriptor{
						TripId:    proto.String("123"),
						RouteId:   proto.String("1"),
						StartDate: proto.String("20240101"),
					},
					StopTimeUpdate: []*gtfs.TripUpdate_StopTimeUpdate{
						withRailroadStatus(&gtfs.TripUpdate_StopTimeUpdate{
							StopId:       proto.String("A"),
							StopSequence: proto.Uint32(1),
							Departure:    &gtfs.TripUpdate_StopTimeEvent{Time: proto.Int64(t0.Unix())},
						}, "3", ""),
						{
							StopId:               proto.String("B"),
							StopSequence:         proto.Uint32(2),
							Arrival:              &gtfs.TripUpdate_StopTimeEvent{Time: proto.Int64(t0.Add(10 * time.Minute).Unix())},
							ScheduleRelationship: gtfs.TripUpdate_StopTimeUpdate_SKIPPED.Enum(),
						},
						withRailroadStatus(&gtfs.TripUpdate_StopTimeUpdate{
							StopId:       proto.String("C"),
							StopSequence: proto.Uint32(3),
							Arrival:      &gtfs.TripUpdate_StopTimeEvent{Time: proto.Int64(t0.Add(20 * time.Minute).Unix())},
						}, "1", "On Time"),
					},
				},
			},
			{
				Id: proto.String("123_V"),
				Vehicle: &gtfs.VehiclePosition{
					Position: &gtfs.Position{
						Latitude:  proto.Float32(1),
						Longitude: proto.Float32(2),
					},
					CurrentStatus: gtfs.VehiclePosition_STOPPED_AT.Enum(),
					StopId:        proto.String("A"),
					Timestamp:     proto.Uint64(uint64(t0.Add(-2 * time.Minute).Unix())),
				},
			},
			{
				Id: proto.String("456_T"),
				TripUpdate: &gtfs.TripUpdate{
					Trip: &gtfs.TripDescriptor{
						TripId:               proto.String("456"),
						StartDate:            proto.String("20240101"),
						ScheduleRelationship: gtfs.TripDescriptor_CANCELED.Enum(),
					},
					StopTimeUpdate: []*gtfs.TripUpdate_StopTimeUpdate{
						{
							StopId:    proto.String("A"),
							Departure: &gtfs.TripUpdate_StopTimeEvent{Time: proto.Int64(t0.Add(-5 * time.Minute).Unix()), Delay: proto.Int32(120)},
						},
					},
				},
			},
			{
				Id: proto.String("789_V"),
				Vehicle: &gtfs.VehiclePosition{
					StopId: proto.String("C"),
				},
			},
		},
	}

	raw, err := proto.Marshal(feedMessage)
	require.NoError(t, err)

	return raw
}

var lirrSuffixes = Suffixes{TripUpdate: "_T", Vehicle: "_V"}

func TestDecode(t *testing.T) {
	feed, err := Decode(scenarioFeed(t))
	require.NoError(t, err)

	assert.Equal(t, t0.Add(-time.Minute).Unix(), feed.Updated.Unix())
	require.Len(t, feed.Entities, 4)

	tripUpdate := feed.Entities[0].TripUpdate
	require.NotNil(t, tripUpdate)
	assert.Equal(t, "123", tripUpdate.TripID)
	assert.Equal(t, "20240101", tripUpdate.StartDate)
	require.Len(t, tripUpdate.StopTimeUpdates, 3)
	assert.Equal(t, "3", tripUpdate.StopTimeUpdates[0].Track)
	assert.Equal(t, "", tripUpdate.StopTimeUpdates[0].TrainStatus)
	assert.True(t, tripUpdate.StopTimeUpdates[1].Skipped)
	assert.Equal(t, "1", tripUpdate.StopTimeUpdates[2].Track)
	assert.Equal(t, "On Time", tripUpdate.StopTimeUpdates[2].TrainStatus)
	assert.Equal(t, t0.Unix(), tripUpdate.StopTimeUpdates[0].Departure.Unix())

	vehicle := feed.Entities[1].Vehicle
	require.NotNil(t, vehicle)
	require.NotNil(t, vehicle.CurrentStatus)
	assert.Equal(t, ctdf.VehicleStopStatusStoppedAt, *vehicle.CurrentStatus)
	assert.Equal(t, 1.0, *vehicle.Latitude)
	assert.Equal(t, 2.0, *vehicle.Longitude)

	cancelled := feed.Entities[2].TripUpdate
	assert.True(t, cancelled.Cancelled)
	require.NotNil(t, cancelled.StopTimeUpdates[0].Delay)
	assert.Equal(t, 2*time.Minute, *cancelled.StopTimeUpdates[0].Delay)

	assert.Nil(t, feed.Entities[3].Vehicle.Latitude)
	assert.Nil(t, feed.Entities[3].Vehicle.CurrentStatus)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte{0xff, 0xff, 0xff})
	assert.True(t, source.IsKind(err, source.ErrorDecodeFailure))
}

func TestCorrelateMergesHalves(t *testing.T) {
	feed, err := Decode(scenarioFeed(t))
	require.NoError(t, err)

	correlated := Correlate(feed, lirrSuffixes)

	require.Len(t, correlated.Combined, 3)
	combined := correlated.Combined["123"]
	require.NotNil(t, combined)
	assert.NotNil(t, combined.TripUpdate)
	assert.NotNil(t, combined.Vehicle)

	trip := correlated.Trips["123"]
	require.NotNil(t, trip)
	require.Len(t, trip.Stops, 2)
	assert.Equal(t, "C", trip.DestinationStopID)
	require.NotNil(t, trip.Vehicle)
	assert.Equal(t, "A", trip.Vehicle.StopID)
	assert.Equal(t, ctdf.VehicleStopStatusStoppedAt, *trip.Vehicle.CurrentStatus)

	// Skipped stops are left out of both indexes
	assert.Nil(t, trip.GetStop("B"))
	assert.Empty(t, correlated.Stops["B"])

	require.Len(t, correlated.Stops["A"], 2)
	assert.Equal(t, "456", correlated.Stops["A"][0].TripID)
	assert.Equal(t, "123", correlated.Stops["A"][1].TripID)
	assert.Equal(t, "C", correlated.Stops["A"][1].DestinationStopID)

	assert.True(t, correlated.Trips["456"].Cancelled)

	// Vehicle only entities are kept but have no stop events
	vehicleOnly := correlated.Trips["789"]
	require.NotNil(t, vehicleOnly)
	assert.Empty(t, vehicleOnly.Stops)
	assert.NotNil(t, vehicleOnly.Vehicle)
}

func TestCorrelateEachPairOnce(t *testing.T) {
	feed := &Feed{}
	for _, id := range []string{"1", "2", "3"} {
		feed.Entities = append(feed.Entities,
			&Entity{ID: id + "_V", Vehicle: &VehiclePosition{StopID: "X"}},
			&Entity{ID: id + "_T", TripUpdate: &TripUpdate{TripID: id}},
		)
	}

	correlated := Correlate(feed, lirrSuffixes)

	assert.Len(t, correlated.Combined, 3)
	for _, combined := range correlated.Combined {
		assert.NotNil(t, combined.TripUpdate)
		assert.NotNil(t, combined.Vehicle)
	}
}

func TestCustomSuffixes(t *testing.T) {
	suffixes := Suffixes{TripUpdate: "-trip", Vehicle: "-veh"}

	assert.Equal(t, "123", suffixes.LogicalID("123-trip"))
	assert.Equal(t, "123", suffixes.LogicalID("123-veh"))
	assert.Equal(t, "123_T", suffixes.LogicalID("123_T"))
}

func TestSourceCachesOnlySuccess(t *testing.T) {
	var requests atomic.Int32
	var healthy atomic.Bool

	raw := scenarioFeed(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))

		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(raw)
	}))
	defer server.Close()

	settings := config.Default().GTFSRT
	settings.URL = server.URL
	settings.APIKey = "secret"

	gtfsrtSource := &Source{
		Settings: settings,
		Cache:    cachedresults.NewMemory(10),
	}
	query := source.Query{
		Origin: &ctdf.Stop{PrimaryIdentifier: "A", StatusID: "A"},
		Now:    t0,
	}

	_, err := gtfsrtSource.Load(context.Background(), query)
	assert.True(t, source.IsKind(err, source.ErrorUpstreamUnavailable))

	healthy.Store(true)

	result, err := gtfsrtSource.Load(context.Background(), query)
	require.NoError(t, err)
	assert.Len(t, result.Records, 2)
	assert.NotNil(t, result.GetTrip("123"))
	assert.Equal(t, int32(2), requests.Load())

	// Served from the cache
	result, err = gtfsrtSource.Load(context.Background(), query)
	require.NoError(t, err)
	assert.Len(t, result.Records, 2)
	assert.Equal(t, int32(2), requests.Load())
	assert.Equal(t, t0.Add(-time.Minute).Unix(), result.Updated.Unix())
}
