package departureboard

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/right-track/right-track-agency-lirr/pkg/config"
	"github.com/right-track/right-track-agency-lirr/pkg/ctdf"
	"github.com/right-track/right-track-agency-lirr/pkg/dataaggregator/source"
	"github.com/right-track/right-track-agency-lirr/pkg/util"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"
)

const noTrackSentinel = "--"

var (
	lateMinutesPattern  = regexp.MustCompile(`late\s*(\d+)`)
	minutesLatePattern  = regexp.MustCompile(`(\d+)\s*min(?:ute)?s?\s*late`)
	departedPhrases     = []string{"departed", "left station"}
	cancelledPhrases    = []string{"cancel"}
	heldPhrases         = []string{"held", "hold"}
	onTimePhrases       = []string{"on time", "on-time"}
	boardRowsSelector   = "tr"
	boardCellsSelector  = "td, th"
	maximumClockRollAge = 12 * time.Hour
)

type ParseOptions struct {
	Columns    config.BoardColumns
	TimeFormat string
	Location   *time.Location
	Now        time.Time
}

// Parse reads the first table of a departure board document, row 0 being the header.
// A page without a table is an empty board and rows with an unreadable time are skipped.
func Parse(document []byte, contentType string, options ParseOptions) ([]*ctdf.RealtimeRecord, error) {
	reader, err := charset.NewReader(bytes.NewReader(document), contentType)
	if err != nil {
		return nil, source.NewError(source.ErrorParseFailure, "Unknown document encoding", err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, source.NewError(source.ErrorParseFailure, "Malformed document", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		log.Debug().Msg("Departure board has no table")
		return []*ctdf.RealtimeRecord{}, nil
	}

	rows := table.Find(boardRowsSelector)
	if rows.Length() < 2 {
		return []*ctdf.RealtimeRecord{}, nil
	}

	location := options.Location
	if location == nil {
		location = time.UTC
	}
	now := options.Now.In(location)

	records := []*ctdf.RealtimeRecord{}
	rows.Slice(1, rows.Length()).Each(func(i int, row *goquery.Selection) {
		var cells []string
		row.Find(boardCellsSelector).Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})

		timeText := cellValue(cells, options.Columns.Time)
		scheduled, parseErr := parseBoardTime(timeText, options.TimeFormat, now)
		if parseErr != nil {
			log.Warn().Err(parseErr).Int("row", i+1).Str("time", timeText).Msg("Skipping departure board row with unreadable time")
			return
		}

		record := &ctdf.RealtimeRecord{
			Source:          ctdf.RealtimeRecordSourceDepartureBoard,
			TripShortName:   cellValue(cells, options.Columns.Train),
			DestinationName: cellValue(cells, options.Columns.Destination),
			ScheduledTime:   scheduled,
			Track:           parseTrack(cellValue(cells, options.Columns.Track)),
		}
		applyStatus(record, cellValue(cells, options.Columns.Status))

		records = append(records, record)
	})

	return records, nil
}

func cellValue(cells []string, column int) string {
	if column < 0 || column >= len(cells) {
		return ""
	}
	return cells[column]
}

// parseBoardTime places a clock time on the day closest to now
func parseBoardTime(value string, layout string, now time.Time) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}

	clock, err := time.ParseInLocation(layout, strings.ToUpper(value), now.Location())
	if err != nil {
		return time.Time{}, err
	}

	scheduled := util.AddTimeToDate(now, clock)
	if now.Sub(scheduled) > maximumClockRollAge {
		scheduled = util.AddTimeToDate(util.NextDay(now), clock)
	} else if scheduled.Sub(now) > maximumClockRollAge {
		scheduled = util.AddTimeToDate(util.PreviousDay(now), clock)
	}

	return scheduled, nil
}

func parseTrack(value string) string {
	if value == noTrackSentinel {
		return ""
	}
	return value
}

// applyStatus interprets the free text status column
func applyStatus(record *ctdf.RealtimeRecord, status string) {
	normalised := util.NormaliseName(status)
	if normalised == "" {
		return
	}

	if containsAny(normalised, departedPhrases) {
		record.Departed = true
		return
	}
	if containsAny(normalised, cancelledPhrases) {
		record.StatusText = ctdf.DepartureStatusCancelled
		return
	}
	if containsAny(normalised, heldPhrases) {
		record.StatusText = ctdf.DepartureStatusHeld
		return
	}

	for _, pattern := range []*regexp.Regexp{lateMinutesPattern, minutesLatePattern} {
		if match := pattern.FindStringSubmatch(normalised); match != nil {
			minutes, err := strconv.Atoi(match[1])
			if err == nil {
				delay := time.Duration(minutes) * time.Minute
				record.Delay = &delay
				return
			}
		}
	}

	if containsAny(normalised, onTimePhrases) {
		delay := time.Duration(0)
		record.Delay = &delay
	}
}

func containsAny(value string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(value, phrase) {
			return true
		}
	}
	return false
}
