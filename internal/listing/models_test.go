package listing_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homescout/homescout/internal/listing"
)

func TestListing_UnmarshalKeepsRaw(t *testing.T) {
	data := []byte(`{
		"booliId": 5432101,
		"streetAddress": "Strandvägen 4",
		"descriptiveAreaName": "Höllviken",
		"objectType": "Villa",
		"url": "/annons/5432101",
		"primaryImage": {"id": 987654},
		"listPrice": {"formatted": "4 950 000 kr"},
		"location": {"region": {"municipalityName": "Vellinge"}},
		"livingArea": {"formatted": "142 m²"}
	}`)

	var l listing.Listing
	require.NoError(t, json.Unmarshal(data, &l))

	assert.Equal(t, "5432101", l.BooliID.String())
	assert.Equal(t, "987654", l.ImageID())
	assert.Equal(t, "Strandvägen 4, Höllviken", l.TransitQuery())
	assert.Equal(t, "4 950 000 kr", l.PriceText())
	assert.Equal(t, "N/A", l.EstimateText())
	assert.Equal(t, "Vellinge", l.Location.Region.MunicipalityName)
	assert.Contains(t, string(l.Raw), "livingArea")
}

func TestListing_IDsAcceptNumbersAndStrings(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		booliID string
		imageID string
	}{
		{"numbers", `{"booliId":111,"primaryImage":{"id":42}}`, "111", "42"},
		{"strings", `{"booliId":"abc-1","primaryImage":{"id":"img-7"}}`, "abc-1", "img-7"},
		{"null", `{"booliId":null,"primaryImage":{"id":null}}`, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l listing.Listing
			require.NoError(t, json.Unmarshal([]byte(tt.data), &l))
			assert.Equal(t, tt.booliID, l.BooliID.String())
			assert.Equal(t, tt.imageID, l.ImageID())
		})
	}
}

func TestListing_MissingOptionalFields(t *testing.T) {
	var l listing.Listing
	require.NoError(t, json.Unmarshal([]byte(`{"streetAddress":"Okänd 1"}`), &l))

	assert.Empty(t, l.ImageID())
	assert.Equal(t, "N/A", l.PriceText())
}

func TestUnknownOperationError_ListsOperations(t *testing.T) {
	err := &listing.UnknownOperationError{
		Operation: "mutateListing",
		Available: []string{"areaSuggestionSearch", "search"},
	}

	assert.Equal(t, "unknown operation: mutateListing. Available operations: areaSuggestionSearch, search", err.Error())
}

func TestGraphQLError_Messages(t *testing.T) {
	err := &listing.GraphQLError{Errors: []json.RawMessage{
		json.RawMessage(`{"message":"PersistedQueryNotFound"}`),
		json.RawMessage(`{"extensions":{"code":"X"}}`),
	}}

	assert.Equal(t, []string{"PersistedQueryNotFound"}, err.Messages())
	assert.Contains(t, err.Error(), "PersistedQueryNotFound")
	assert.Contains(t, err.Error(), `"code":"X"`)
}
