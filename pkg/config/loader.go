package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/right-track/right-track-agency-lirr/pkg/util"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Load builds the Settings from defaults, an optional YAML file and STATIONFEED_ environment variables
func Load(path string) (*Settings, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	settings := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := applyEnvironment(settings, util.GetEnvironmentVariables()); err != nil {
		return nil, err
	}

	if err := Validate(settings); err != nil {
		return nil, err
	}

	log.Debug().
		Str("timezone", settings.Timezone).
		Interface("sources", settings.Sources).
		Msg("Loaded station feed settings")

	return settings, nil
}

func Validate(settings *Settings) error {
	v := validator.New()

	err := v.RegisterValidation("required_if_source", func(fl validator.FieldLevel) bool {
		settings, ok := fl.Top().Interface().(*Settings)
		if !ok || !settings.HasSource(SourceType(fl.Param())) {
			return true
		}

		return fl.Field().String() != ""
	})
	if err != nil {
		return err
	}

	if err := v.Struct(settings); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	if _, err := time.LoadLocation(settings.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", settings.Timezone, err)
	}
	settings.Location()

	return nil
}

func applyEnvironment(settings *Settings, env map[string]string) error {
	prefix := util.EnvironmentPrefix

	if env[prefix+"TIMEZONE"] != "" {
		settings.Timezone = env[prefix+"TIMEZONE"]
	}

	if env[prefix+"SOURCES"] != "" {
		settings.Sources = nil
		for _, source := range strings.Split(env[prefix+"SOURCES"], ",") {
			settings.Sources = append(settings.Sources, SourceType(strings.TrimSpace(source)))
		}
	}

	if env[prefix+"GTFSRT_URL"] != "" {
		settings.GTFSRT.URL = env[prefix+"GTFSRT_URL"]
	}
	if env[prefix+"GTFSRT_API_KEY"] != "" {
		settings.GTFSRT.APIKey = env[prefix+"GTFSRT_API_KEY"]
	}
	if env[prefix+"DEPARTUREBOARD_URL"] != "" {
		settings.DepartureBoard.URL = env[prefix+"DEPARTUREBOARD_URL"]
	}
	if env[prefix+"DEPARTUREBOARD_API_KEY"] != "" {
		settings.DepartureBoard.APIKey = env[prefix+"DEPARTUREBOARD_API_KEY"]
	}

	if env[prefix+"CACHE_REDIS"] == "YES" {
		settings.Cache.Redis = true
	}

	if env[prefix+"SCHEDULE_BACKEND"] != "" {
		settings.Schedule.Backend = ScheduleBackend(env[prefix+"SCHEDULE_BACKEND"])
	}
	if env[prefix+"SCHEDULE_GTFS_PATH"] != "" {
		settings.Schedule.GTFSPath = env[prefix+"SCHEDULE_GTFS_PATH"]
	}
	if env[prefix+"SCHEDULE_HOLIDAYS"] != "" {
		settings.Schedule.Holidays = env[prefix+"SCHEDULE_HOLIDAYS"]
	}

	durations := map[string]*time.Duration{
		"GTFSRT_TIMEOUT":           &settings.GTFSRT.Timeout,
		"GTFSRT_CACHE_TTL":         &settings.GTFSRT.CacheTTL,
		"DEPARTUREBOARD_TIMEOUT":   &settings.DepartureBoard.Timeout,
		"DEPARTUREBOARD_CACHE_TTL": &settings.DepartureBoard.CacheTTL,
		"DEPARTED_GRACE_WINDOW":    &settings.Windows.DepartedGrace,
		"MAX_DEPARTED_WINDOW":      &settings.Windows.MaxDeparted,
		"MAX_FUTURE_WINDOW":        &settings.Windows.MaxFuture,
	}
	for name, target := range durations {
		value := env[prefix+name]
		if value == "" {
			continue
		}

		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", prefix, name, err)
		}
		*target = parsed
	}

	return nil
}
