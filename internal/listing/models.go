// Package listing holds the real-estate listing domain: search inputs,
// area suggestions, listing records and the listing API error types.
package listing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Listing errors.
var (
	ErrMissingAreaID = errors.New("search input requires an areaId")
)

// Filter is one key/value search filter. Keys are forwarded verbatim.
type Filter struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SearchInput is the filter structure the listing search expects.
type SearchInput struct {
	AreaID           string   `json:"areaId"`
	Filters          []Filter `json:"filters"`
	Page             int      `json:"page"`
	Sort             string   `json:"sort"`
	Ascending        bool     `json:"ascending"`
	ExcludeAncestors bool     `json:"excludeAncestors"`
	Facets           []string `json:"facets"`
}

// PolygonInput selects map polygons for a set of areas.
type PolygonInput struct {
	AreaIDs []int    `json:"areaIds"`
	Filters []Filter `json:"filters"`
}

// AreaSuggestion is one match of an area name lookup.
type AreaSuggestion struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Type              string `json:"type"`
	TypeDisplayName   string `json:"typeDisplayName"`
	Parent            string `json:"parent"`
	ParentDisplayName string `json:"parentDisplayName"`
}

// SearchResult is the data payload of a listing search.
type SearchResult struct {
	ForSale ForSale `json:"forSale"`
}

// ForSale is a single page of for-sale listings.
type ForSale struct {
	TotalCount int       `json:"totalCount"`
	Pages      int       `json:"pages"`
	Result     []Listing `json:"result"`
}

// Listing is a listing record. Only the fields the digest uses are typed;
// the full upstream record is kept in Raw.
type Listing struct {
	BooliID             ID     `json:"booliId"`
	StreetAddress       string `json:"streetAddress"`
	DescriptiveAreaName string `json:"descriptiveAreaName"`
	ObjectType          string `json:"objectType"`
	URL                 string `json:"url"`
	PrimaryImage        *struct {
		ID ID `json:"id"`
	} `json:"primaryImage"`
	ListPrice *FormattedValue `json:"listPrice"`
	Estimate  *struct {
		Price *FormattedValue `json:"price"`
	} `json:"estimate"`
	Location struct {
		Region struct {
			MunicipalityName string `json:"municipalityName"`
		} `json:"region"`
	} `json:"location"`

	Raw json.RawMessage `json:"-"`
}

// ID is an upstream identifier sent either as a JSON number or a string.
type ID string

// UnmarshalJSON accepts a number, a string or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case string(trimmed) == "null":
		*id = ""
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*id = ID(s)
	default:
		*id = ID(trimmed)
	}
	return nil
}

// String returns the id as text.
func (id ID) String() string {
	return string(id)
}

// FormattedValue is a value the listing service already formatted for display.
type FormattedValue struct {
	Formatted string `json:"formatted"`
}

// UnmarshalJSON decodes the typed fields and keeps the raw record.
func (l *Listing) UnmarshalJSON(data []byte) error {
	type plain Listing
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = Listing(p)
	l.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// ImageID returns the primary image id, or "" when the listing has none.
func (l *Listing) ImageID() string {
	if l.PrimaryImage == nil {
		return ""
	}
	return l.PrimaryImage.ID.String()
}

// TransitQuery is the free-text address used to look the listing up in the transit planner.
func (l *Listing) TransitQuery() string {
	return l.StreetAddress + ", " + l.DescriptiveAreaName
}

// PriceText returns the formatted list price, or "N/A".
func (l *Listing) PriceText() string {
	if l.ListPrice == nil || l.ListPrice.Formatted == "" {
		return "N/A"
	}
	return l.ListPrice.Formatted
}

// EstimateText returns the formatted price estimate, or "N/A".
func (l *Listing) EstimateText() string {
	if l.Estimate == nil || l.Estimate.Price == nil || l.Estimate.Price.Formatted == "" {
		return "N/A"
	}
	return l.Estimate.Price.Formatted
}

// UnknownOperationError is returned when a query names an operation that has
// no registered persisted-query hash.
type UnknownOperationError struct {
	Operation string
	Available []string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation: %s. Available operations: %s",
		e.Operation, strings.Join(e.Available, ", "))
}

// GraphQLError is returned when the response envelope carries a non-empty
// errors member, regardless of the HTTP status. The errors are kept verbatim;
// a member that is not an array is kept as a single entry.
type GraphQLError struct {
	Errors []json.RawMessage
}

func (e *GraphQLError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, raw := range e.Errors {
		parts = append(parts, string(raw))
	}
	return "graphql error: [" + strings.Join(parts, ",") + "]"
}

// Messages returns the message field of every error that has one.
func (e *GraphQLError) Messages() []string {
	var messages []string
	for _, raw := range e.Errors {
		var entry struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &entry) == nil && entry.Message != "" {
			messages = append(messages, entry.Message)
		}
	}
	return messages
}
