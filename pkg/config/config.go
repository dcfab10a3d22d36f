package config

import (
	"sync"
	"time"
)

type SourceType string

const (
	SourceGTFSRT         SourceType = "gtfsrt"
	SourceDepartureBoard SourceType = "departureboard"
)

type ScheduleBackend string

const (
	ScheduleBackendMongoDB ScheduleBackend = "mongodb"
	ScheduleBackendGTFS    ScheduleBackend = "gtfs"
)

// Settings is the already-parsed agency configuration handed to the pipeline
type Settings struct {
	Timezone string       `yaml:"timezone" validate:"required"`
	Sources  []SourceType `yaml:"sources" validate:"min=1,dive,oneof=gtfsrt departureboard"`

	GTFSRT         GTFSRTSettings         `yaml:"gtfsrt"`
	DepartureBoard DepartureBoardSettings `yaml:"departureboard"`

	Windows WindowSettings `yaml:"windows"`

	Cache    CacheSettings    `yaml:"cache"`
	Schedule ScheduleSettings `yaml:"schedule"`

	locationOnce sync.Once
	location     *time.Location
}

type GTFSRTSettings struct {
	URL          string            `yaml:"url" validate:"required_if_source=gtfsrt"`
	APIKey       string            `yaml:"apiKey"`
	APIKeyHeader string            `yaml:"apiKeyHeader"`
	Headers      map[string]string `yaml:"headers"`

	Timeout  time.Duration `yaml:"timeout" validate:"gte=1s"`
	CacheTTL time.Duration `yaml:"cacheTTL" validate:"gte=0"`

	TripSuffix    string `yaml:"tripSuffix" validate:"required"`
	VehicleSuffix string `yaml:"vehicleSuffix" validate:"required,nefield=TripSuffix"`
}

type DepartureBoardSettings struct {
	URL            string            `yaml:"url" validate:"required_if_source=departureboard"`
	APIKey         string            `yaml:"apiKey"`
	Headers        map[string]string `yaml:"headers"`
	PerDestination bool              `yaml:"perDestination"`

	Timeout  time.Duration `yaml:"timeout" validate:"gte=1s"`
	CacheTTL time.Duration `yaml:"cacheTTL" validate:"gte=0"`

	TimeFormat  string       `yaml:"timeFormat" validate:"required"`
	Columns     BoardColumns `yaml:"columns"`
	StopAliases string       `yaml:"stopAliases"`
}

// BoardColumns are zero based cell indexes, -1 when the board has no such column
type BoardColumns struct {
	Time        int `yaml:"time" validate:"gte=0"`
	Destination int `yaml:"destination" validate:"gte=0"`
	Status      int `yaml:"status" validate:"gte=-1"`
	Track       int `yaml:"track" validate:"gte=-1"`
	Train       int `yaml:"train" validate:"gte=-1"`
}

type WindowSettings struct {
	DepartedGrace time.Duration `yaml:"departedGrace" validate:"gte=0"`
	MaxDeparted   time.Duration `yaml:"maxDeparted" validate:"gtefield=DepartedGrace"`
	MaxFuture     time.Duration `yaml:"maxFuture" validate:"gt=0"`
}

type CacheSettings struct {
	Redis bool `yaml:"redis"`
	Size  int  `yaml:"size" validate:"gte=1"`
}

type ScheduleSettings struct {
	Backend  ScheduleBackend `yaml:"backend" validate:"oneof=mongodb gtfs"`
	GTFSPath string          `yaml:"gtfsPath" validate:"required_if=Backend gtfs"`

	// Holidays is an optional CSV of dates without peak service
	Holidays string `yaml:"holidays"`
}

func Default() *Settings {
	return &Settings{
		Timezone: "America/New_York",
		Sources:  []SourceType{SourceGTFSRT},
		GTFSRT: GTFSRTSettings{
			URL:           "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/lirr%2Fgtfs-lirr",
			APIKeyHeader:  "x-api-key",
			Timeout:       5 * time.Second,
			CacheTTL:      45 * time.Second,
			TripSuffix:    "_T",
			VehicleSuffix: "_V",
		},
		DepartureBoard: DepartureBoardSettings{
			Timeout:    6 * time.Second,
			CacheTTL:   60 * time.Second,
			TimeFormat: "3:04 PM",
			Columns: BoardColumns{
				Time:        0,
				Destination: 1,
				Status:      2,
				Track:       3,
				Train:       -1,
			},
		},
		Windows: WindowSettings{
			DepartedGrace: 5 * time.Minute,
			MaxDeparted:   10 * time.Minute,
			MaxFuture:     3 * time.Hour,
		},
		Cache: CacheSettings{
			Size: 1000,
		},
		Schedule: ScheduleSettings{
			Backend: ScheduleBackendMongoDB,
		},
	}
}

// Location is resolved once and shared by every feed built from these settings.
// An unknown timezone falls back to UTC.
func (s *Settings) Location() *time.Location {
	s.locationOnce.Do(func() {
		location, err := time.LoadLocation(s.Timezone)
		if err != nil {
			location = time.UTC
		}
		s.location = location
	})

	return s.location
}

func (s *Settings) HasSource(source SourceType) bool {
	for _, configured := range s.Sources {
		if configured == source {
			return true
		}
	}
	return false
}
