package ctdf

type Route struct {
	PrimaryIdentifier string `groups:"basic" json:"id"`
	ShortName         string `groups:"basic" json:"shortName"`
	LongName          string `groups:"basic" json:"longName"`
}

type Direction struct {
	DirectionID int    `groups:"basic" json:"id"`
	Description string `groups:"basic" json:"description"`
}
