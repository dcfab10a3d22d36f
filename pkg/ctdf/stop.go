package ctdf

import "strings"

// StopStatusIDUnsupported marks a Stop that has no live departure data
const StopStatusIDUnsupported = "-1"

type Stop struct {
	PrimaryIdentifier string `groups:"basic" json:"id"`
	PrimaryName       string `groups:"basic" json:"name"`

	StatusID string `groups:"detailed" json:"statusId,omitempty"`

	Location *Location `groups:"detailed" json:"location,omitempty" bson:",omitempty"`
	URL      string    `groups:"detailed" json:"url,omitempty" bson:",omitempty"`
}

func (s *Stop) SupportsRealtime() bool {
	return s != nil && s.StatusID != "" && s.StatusID != StopStatusIDUnsupported
}

// MatchesName compares stop names ignoring case and surrounding whitespace
func (s *Stop) MatchesName(name string) bool {
	if s == nil {
		return false
	}

	return strings.EqualFold(strings.TrimSpace(s.PrimaryName), strings.TrimSpace(name))
}
