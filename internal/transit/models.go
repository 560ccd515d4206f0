// Package transit holds the public-transport journey domain: stop and
// location points, journey plans and the selection rules that turn a
// planner response into a single commute time.
package transit

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// Transit errors.
var (
	ErrMissingEndpoint    = errors.New("journey request requires both endpoints")
	ErrMissingCoordinates = errors.New("address point has no coordinates")
	ErrPointNotFound      = errors.New("no matching transit point")
)

// PointType classifies a point returned by the stop search.
type PointType string

const (
	PointStopArea PointType = "STOP_AREA"
	PointLocation PointType = "LOCATION"
	PointAddress  PointType = "ADDRESS"
	PointPOI      PointType = "POI"
)

// Point is a stop or a geocoded place returned by the stop search.
type Point struct {
	ID2  string    `json:"id2"`
	Type PointType `json:"type"`
	Name string    `json:"name"`
	Lat  *float64  `json:"lat,omitempty"`
	Lon  *float64  `json:"lon,omitempty"`
}

// PointRef identifies a journey endpoint. It is either a resolved point
// (id and type as returned by the stop search) or a bare coordinate.
type PointRef struct {
	id       string
	typ      PointType
	lat, lon float64
	geocoded bool
}

// Resolved references a point by its planner id and type.
func Resolved(id string, typ PointType) PointRef {
	return PointRef{id: id, typ: typ}
}

// Geocoded references a coordinate.
func Geocoded(lat, lon float64) PointRef {
	return PointRef{lat: lat, lon: lon, geocoded: true}
}

// RefFromPoint builds the reference the planner expects for a search result.
// Address points are sent as coordinates; everything else by id.
func RefFromPoint(p Point) (PointRef, error) {
	if p.Type != PointAddress {
		return Resolved(p.ID2, p.Type), nil
	}
	if p.Lat == nil || p.Lon == nil {
		return PointRef{}, ErrMissingCoordinates
	}
	return Geocoded(*p.Lat, *p.Lon), nil
}

// IsZero reports whether the reference was never set.
func (r PointRef) IsZero() bool {
	return !r.geocoded && r.id == "" && r.typ == ""
}

// IsGeocoded reports whether the reference is a coordinate.
func (r PointRef) IsGeocoded() bool {
	return r.geocoded
}

// Normalize returns the id and type sent to the planner.
// Coordinates are encoded as "<lat>#<lon>" with type LOCATION.
func (r PointRef) Normalize() (id string, typ PointType) {
	if r.geocoded {
		return formatCoordinate(r.lat) + "#" + formatCoordinate(r.lon), PointLocation
	}
	return r.id, r.typ
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Journey planner option values.
const (
	PriorityShortestTime = "SHORTEST_TIME"
	WalkSpeedNormal      = "NORMAL"
)

// Journey planner defaults.
const (
	DefaultJourneysAfter   = 5
	DefaultMaxWalkDistance = 2000
)

// JourneyRequest describes a journey to plan. Zero values take the defaults
// listed on each field.
type JourneyRequest struct {
	From PointRef
	To   PointRef

	// Departure defaults to now.
	Departure time.Time

	// Arrival treats Departure as the desired arrival time.
	Arrival bool

	// Priority defaults to SHORTEST_TIME.
	Priority string

	// JourneysAfter is the minimum number of itineraries (default 5).
	JourneysAfter int

	// WalkSpeed defaults to NORMAL.
	WalkSpeed string

	// MaxWalkDistance in meters (default 2000).
	MaxWalkDistance int

	// AllowWalkToOtherStop defaults to true when nil.
	AllowWalkToOtherStop *bool
}

// WithDefaults returns a copy of the request with unset options filled in.
func (r JourneyRequest) WithDefaults(now time.Time) JourneyRequest {
	if r.Departure.IsZero() {
		r.Departure = now
	}
	if r.Priority == "" {
		r.Priority = PriorityShortestTime
	}
	if r.JourneysAfter <= 0 {
		r.JourneysAfter = DefaultJourneysAfter
	}
	if r.WalkSpeed == "" {
		r.WalkSpeed = WalkSpeedNormal
	}
	if r.MaxWalkDistance <= 0 {
		r.MaxWalkDistance = DefaultMaxWalkDistance
	}
	if r.AllowWalkToOtherStop == nil {
		allow := true
		r.AllowWalkToOtherStop = &allow
	}
	return r
}

// Validate checks that both endpoints are set.
func (r JourneyRequest) Validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return ErrMissingEndpoint
	}
	return nil
}

// JourneyPlan is the planner response. An empty Journeys slice is valid.
type JourneyPlan struct {
	ID       string    `json:"id,omitempty"`
	Journeys []Journey `json:"journeys"`
}

// Journey is one itinerary.
type Journey struct {
	ID          json.Number `json:"id"`
	NoOfChanges int         `json:"noOfChanges"`
	RouteLinks  []RouteLink `json:"routeLinks"`
}

// RouteLink is one leg of a journey. Legs are ordered in time.
type RouteLink struct {
	From Stop   `json:"from"`
	To   Stop   `json:"to"`
	Line Line   `json:"line"`
	Path string `json:"path,omitempty"`
}

// Stop is the start or end of a leg.
type Stop struct {
	Name       string      `json:"name"`
	Time       time.Time   `json:"time"`
	Coordinate *Coordinate `json:"coordinate,omitempty"`
}

// Coordinate is a WGS84 position.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LineType is the mode of a leg.
type LineType string

const (
	LineWalk  LineType = "Walk"
	LineBus   LineType = "Bus"
	LineTrain LineType = "Train"
)

// Line describes how a leg is travelled.
type Line struct {
	Type     LineType `json:"type"`
	Name     string   `json:"name"`
	No       string   `json:"no,omitempty"`
	Towards  string   `json:"towards,omitempty"`
	Distance string   `json:"distance,omitempty"`
}

// IsWalk reports whether the leg is on foot.
func (l Line) IsWalk() bool {
	return l.Type == LineWalk
}

// Duration is the scheduled time of the leg.
func (rl RouteLink) Duration() time.Duration {
	return rl.To.Time.Sub(rl.From.Time)
}

// JourneyTime is the elapsed time of one itinerary.
type JourneyTime struct {
	TotalMinutes int
	Hours        int
	Minutes      int
	Formatted    string
	StartTime    time.Time
	EndTime      time.Time
}
