package ctdf

import "time"

type StationFeed struct {
	Origin     *Stop        `groups:"basic" json:"origin"`
	Updated    time.Time    `groups:"basic" json:"updated"`
	Departures []*Departure `groups:"basic" json:"departures"`
}
