package ctdf

type Location struct {
	Type        string    `groups:"basic" json:"type"`
	Coordinates []float64 `groups:"basic" json:"coordinates"`
}

func NewPointLocation(latitude float64, longitude float64) *Location {
	return &Location{
		Type:        "Point",
		Coordinates: []float64{longitude, latitude},
	}
}
