package listing

import (
	"fmt"
	"strconv"
	"strings"
)

// Reserved parameter keys. Any other key is a filter.
const (
	ParamAreaID           = "areaId"
	ParamPage             = "page"
	ParamSort             = "sort"
	ParamAscending        = "ascending"
	ParamExcludeAncestors = "excludeAncestors"
	ParamFacets           = "facets"
)

// Params is a flat, insertion-ordered set of search parameters. The zero
// value is an empty set ready to use.
type Params struct {
	keys   []string
	values map[string]any
}

// NewParams returns an empty parameter set.
func NewParams() *Params {
	return &Params{values: make(map[string]any)}
}

// Set stores value under key. A key that is set again keeps its first position.
func (p *Params) Set(key string, value any) *Params {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
	return p
}

// Get returns the value stored under key.
func (p *Params) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (p *Params) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Len returns the number of keys.
func (p *Params) Len() int {
	return len(p.keys)
}

func isReserved(key string) bool {
	switch key {
	case ParamAreaID, ParamPage, ParamSort, ParamAscending, ParamExcludeAncestors, ParamFacets:
		return true
	}
	return false
}

// BuildSearchInput turns flat parameters into a SearchInput.
//
// areaId is required. page defaults to 1, sort to "", ascending to false,
// excludeAncestors to true and facets to empty. Every other key becomes a
// filter, in insertion order, with its value stringified.
func BuildSearchInput(p *Params) (SearchInput, error) {
	input := SearchInput{
		Filters:          []Filter{},
		Page:             1,
		ExcludeAncestors: true,
		Facets:           []string{},
	}
	if p == nil {
		return input, ErrMissingAreaID
	}

	for _, key := range p.keys {
		value := p.values[key]
		if !isReserved(key) {
			input.Filters = append(input.Filters, Filter{Key: key, Value: stringify(value)})
			continue
		}

		var err error
		switch key {
		case ParamAreaID:
			input.AreaID = stringify(value)
		case ParamPage:
			input.Page, err = toInt(value)
			if err == nil && input.Page < 1 {
				err = fmt.Errorf("must be >= 1, got %d", input.Page)
			}
		case ParamSort:
			input.Sort = stringify(value)
		case ParamAscending:
			input.Ascending, err = toBool(value)
		case ParamExcludeAncestors:
			input.ExcludeAncestors, err = toBool(value)
		case ParamFacets:
			input.Facets, err = toStrings(value)
		}
		if err != nil {
			return SearchInput{}, fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	if input.AreaID == "" {
		return SearchInput{}, ErrMissingAreaID
	}

	return input, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, ",")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func toInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		if t != float64(int(t)) {
			return 0, fmt.Errorf("not an integer: %v", t)
		}
		return int(t), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(t))
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(t))
	default:
		return false, fmt.Errorf("unsupported type %T", v)
	}
}

func toStrings(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return append([]string{}, t...), nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, stringify(item))
		}
		return out, nil
	case string:
		out := []string{}
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}
