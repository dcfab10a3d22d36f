package peak

import (
	"io"
	"os"
	"time"

	"github.com/gocarina/gocsv"
)

type holiday struct {
	Date string `csv:"date"`
	Name string `csv:"holiday_name"`
	Peak int    `csv:"peak"`
}

// Holidays are the service dates, as YYYYMMDD, that run without peak service
type Holidays map[string]bool

func LoadHolidays(path string) (Holidays, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseHolidays(file)
}

func ParseHolidays(reader io.Reader) (Holidays, error) {
	var rows []*holiday
	if err := gocsv.Unmarshal(reader, &rows); err != nil {
		return nil, err
	}

	holidays := Holidays{}
	for _, row := range rows {
		if row.Peak == 0 {
			holidays[row.Date] = true
		}
	}

	return holidays, nil
}

func (h Holidays) IsHoliday(date time.Time) bool {
	return h[serviceDateKey(date)]
}
