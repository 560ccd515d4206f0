// Package digest builds the listing digest: it searches the listing service,
// scores every listing by its public-transport commute and renders the result
// as an HTML page.
package digest

import (
	"errors"
	"time"

	"github.com/homescout/homescout/internal/config"
	"github.com/homescout/homescout/internal/transit"
)

// Digest errors.
var (
	ErrAreaNotFound = errors.New("area not found")
)

// TravelTimeUnavailable is shown when no commute could be computed.
const TravelTimeUnavailable = "N/A"

// Digest is the result of one run.
type Digest struct {
	RunID       string
	GeneratedAt time.Time
	Profile     config.Profile
	AreaID      string
	TotalCount  int
	Properties  []Property
}

// Images returns the fetched images of all properties, in property order.
func (d *Digest) Images() []*Image {
	var images []*Image
	for i := range d.Properties {
		if img := d.Properties[i].Image; img != nil {
			images = append(images, img)
		}
	}
	return images
}

// Property is one listing enriched for display.
type Property struct {
	ID         string
	Address    string
	Type       string
	Location   string
	Price      string
	Estimate   string
	URL        string
	ImageURL   string
	TravelTime string

	// Journey is nil when TravelTime is TravelTimeUnavailable.
	Journey *transit.JourneyTime

	// Image is nil when the listing has no image or it could not be fetched.
	Image *Image
}

// Image is a downloaded listing image.
type Image struct {
	Data        []byte
	ContentType string
	CID         string
	Filename    string
}
