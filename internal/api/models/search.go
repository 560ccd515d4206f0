package models

// Area is one area suggestion.
type Area struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	TypeName string `json:"typeName,omitempty"`
	Parent   string `json:"parent,omitempty"`
}

// AreaList is the response of GET /v1/areas.
type AreaList struct {
	Query string `json:"query"`
	// Selected is the id picked for the requested type, if any.
	Selected *string `json:"selected,omitempty"`
	Items    []Area  `json:"items"`
}

// Place is a resolved journey endpoint.
type Place struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Leg is one route link of a journey.
type Leg struct {
	Mode     string    `json:"mode"`
	Line     string    `json:"line,omitempty"`
	Towards  string    `json:"towards,omitempty"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Departs  Timestamp `json:"departs"`
	Arrives  Timestamp `json:"arrives"`
	Distance string    `json:"distance,omitempty"`
}

// JourneyOption is one journey of a plan.
type JourneyOption struct {
	Departs      Timestamp `json:"departs"`
	Arrives      Timestamp `json:"arrives"`
	TotalMinutes int       `json:"totalMinutes"`
	Duration     string    `json:"duration"`
	Changes      int       `json:"changes"`
	Legs         []Leg     `json:"legs"`
}

// JourneyList is the response of GET /v1/journeys.
type JourneyList struct {
	From     Place           `json:"from"`
	To       Place           `json:"to"`
	Journeys []JourneyOption `json:"journeys"`
}
