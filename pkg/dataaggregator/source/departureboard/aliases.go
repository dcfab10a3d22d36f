package departureboard

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/right-track/right-track-agency-lirr/pkg/util"
)

type stopAlias struct {
	Name   string `csv:"name"`
	StopID string `csv:"stop_id"`
}

// Aliases maps the destination names printed on a board to schedule stop ids
type Aliases map[string]string

func LoadAliases(path string) (Aliases, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stop aliases %s: %w", path, err)
	}
	defer file.Close()

	return ParseAliases(file)
}

func ParseAliases(reader io.Reader) (Aliases, error) {
	var rows []*stopAlias
	if err := gocsv.Unmarshal(reader, &rows); err != nil {
		return nil, fmt.Errorf("parsing stop aliases: %w", err)
	}

	aliases := Aliases{}
	for _, row := range rows {
		if row.Name == "" || row.StopID == "" {
			continue
		}
		aliases[util.NormaliseName(row.Name)] = row.StopID
	}

	return aliases, nil
}

func (a Aliases) Lookup(name string) (string, bool) {
	stopID, exists := a[util.NormaliseName(name)]
	return stopID, exists
}
