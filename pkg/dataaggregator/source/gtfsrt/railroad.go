package gtfsrt

import (
	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field number of the MTA railroad extension on StopTimeUpdate
const railroadStopTimeUpdateField protowire.Number = 1005

const (
	railroadTrackField       protowire.Number = 1
	railroadTrainStatusField protowire.Number = 2
)

type RailroadStopTimeUpdate struct {
	Track       string
	TrainStatus string
}

// railroadStopTimeUpdate reads the unregistered extension out of the unknown fields
func railroadStopTimeUpdate(stopTimeUpdate *gtfs.TripUpdate_StopTimeUpdate) *RailroadStopTimeUpdate {
	unknown := stopTimeUpdate.ProtoReflect().GetUnknown()

	var extension *RailroadStopTimeUpdate
	for len(unknown) > 0 {
		number, wireType, n := protowire.ConsumeTag(unknown)
		if n < 0 {
			return extension
		}
		unknown = unknown[n:]

		if number == railroadStopTimeUpdateField && wireType == protowire.BytesType {
			value, n := protowire.ConsumeBytes(unknown)
			if n < 0 {
				return extension
			}
			unknown = unknown[n:]

			extension = mergeRailroadFields(extension, value)
			continue
		}

		n = protowire.ConsumeFieldValue(number, wireType, unknown)
		if n < 0 {
			return extension
		}
		unknown = unknown[n:]
	}

	return extension
}

func mergeRailroadFields(extension *RailroadStopTimeUpdate, message []byte) *RailroadStopTimeUpdate {
	if extension == nil {
		extension = &RailroadStopTimeUpdate{}
	}

	for len(message) > 0 {
		number, wireType, n := protowire.ConsumeTag(message)
		if n < 0 {
			return extension
		}
		message = message[n:]

		if wireType == protowire.BytesType && (number == railroadTrackField || number == railroadTrainStatusField) {
			value, n := protowire.ConsumeString(message)
			if n < 0 {
				return extension
			}
			message = message[n:]

			if number == railroadTrackField {
				extension.Track = value
			} else {
				extension.TrainStatus = value
			}
			continue
		}

		n = protowire.ConsumeFieldValue(number, wireType, message)
		if n < 0 {
			return extension
		}
		message = message[n:]
	}

	return extension
}
