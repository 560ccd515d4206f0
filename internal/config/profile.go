package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/homescout/homescout/internal/listing"
)

// Profile describes one saved property search and the commute it is scored by.
type Profile struct {
	// Title heads the digest.
	Title string `toml:"title"`

	// Area is the place name resolved to an area id.
	Area string `toml:"area"`

	// AreaType restricts the area lookup to one suggestion type (e.g. "Län").
	AreaType string `toml:"area_type"`

	// Origin is the commute start, searched in the journey planner.
	Origin string `toml:"origin"`

	// OriginLabel names the origin in the digest (defaults to Origin).
	OriginLabel string `toml:"origin_label"`

	// Limit is the number of listings fetched.
	Limit int `toml:"limit"`

	// ImageBaseURL is the listing image CDN.
	ImageBaseURL string `toml:"image_base_url"`

	// ListingBaseURL prefixes relative listing URLs.
	ListingBaseURL string `toml:"listing_base_url"`

	// Filters are the search parameters in file order. Reserved keys such
	// as page or sort are allowed.
	Filters *listing.Params `toml:"-"`
}

// Profile defaults.
const (
	DefaultImageBaseURL   = "https://bcdn.se/images/cache"
	DefaultListingBaseURL = "https://www.booli.se"
	DefaultProfileLimit   = 100
)

// DefaultProfile returns the built-in search: recent houses near water in Skåne,
// scored by the commute from Hyllie.
func DefaultProfile() Profile {
	return Profile{
		Title:          "New Properties in Skåne",
		Area:           "Skåne län",
		AreaType:       "Län",
		Origin:         "Hyllie, Malmö",
		OriginLabel:    "Hyllie",
		Limit:          DefaultProfileLimit,
		ImageBaseURL:   DefaultImageBaseURL,
		ListingBaseURL: DefaultListingBaseURL,
		Filters: listing.NewParams().
			Set("objectType", "Villa,Fritidshus,Gård").
			Set("maxDistanceToWater", "2000").
			Set("daysActive", 3),
	}
}

// LoadProfile reads a profile from a TOML file. Unset fields keep the
// DefaultProfile values; a [filters] table replaces the default filters.
func LoadProfile(path string) (Profile, error) {
	var raw struct {
		Profile
		Filters map[string]any `toml:"filters"`
	}

	md, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Profile{}, fmt.Errorf("decoding profile %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Profile{}, fmt.Errorf("decoding profile %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	p := raw.Profile
	def := DefaultProfile()

	if p.Title == "" {
		p.Title = def.Title
	}
	if p.Area == "" {
		p.Area = def.Area
		if p.AreaType == "" {
			p.AreaType = def.AreaType
		}
	}
	if p.Origin == "" {
		p.Origin = def.Origin
		if p.OriginLabel == "" {
			p.OriginLabel = def.OriginLabel
		}
	}
	if p.OriginLabel == "" {
		p.OriginLabel = p.Origin
	}
	if p.Limit <= 0 {
		p.Limit = def.Limit
	}
	if p.ImageBaseURL == "" {
		p.ImageBaseURL = def.ImageBaseURL
	}
	if p.ListingBaseURL == "" {
		p.ListingBaseURL = def.ListingBaseURL
	}

	if !md.IsDefined("filters") {
		p.Filters = def.Filters
		return p, nil
	}

	// Map iteration order is random; the metadata keys keep file order.
	p.Filters = listing.NewParams()
	for _, key := range md.Keys() {
		if len(key) != 2 || key[0] != "filters" {
			continue
		}
		p.Filters.Set(key[1], filterValue(raw.Filters[key[1]]))
	}

	return p, nil
}

// filterValue flattens TOML arrays to the comma form filters use.
func filterValue(v any) any {
	items, ok := v.([]any)
	if !ok {
		return v
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprint(item))
	}
	return strings.Join(parts, ",")
}

// SearchParams returns the full search parameters for a resolved area.
func (p Profile) SearchParams(areaID string) *listing.Params {
	params := listing.NewParams().Set(listing.ParamAreaID, areaID)
	if p.Filters != nil {
		for _, key := range p.Filters.Keys() {
			if key == listing.ParamAreaID {
				continue
			}
			v, _ := p.Filters.Get(key)
			params.Set(key, v)
		}
	}
	return params
}

// FilterSummary renders the filters as "key: value" lines for display.
func (p Profile) FilterSummary() []string {
	if p.Filters == nil {
		return nil
	}
	lines := make([]string, 0, p.Filters.Len())
	for _, key := range p.Filters.Keys() {
		v, _ := p.Filters.Get(key)
		lines = append(lines, fmt.Sprintf("%s: %v", key, v))
	}
	return lines
}
