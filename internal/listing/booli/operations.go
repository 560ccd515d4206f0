package booli

import "sort"

// Operation names registered as persisted queries on the listing service.
const (
	OperationSearch               = "search"
	OperationPolygons             = "polygons"
	OperationUserSearchHistory    = "userSearchHistoryDescriptions"
	OperationAreaSuggestionSearch = "areaSuggestionSearch"
)

const persistedQueryProtocolVersion = 1

// operationHashes binds each operation to the SHA-256 of the query text the
// server has registered. Read-only after init.
var operationHashes = map[string]string{
	OperationSearch:               "cb4a5ccfbe86483ee760bcd9d09284fb49045581ee48568c678479a2a9f2e724",
	OperationPolygons:             "b38be74aaac081a0e1e151ca222c848f3817c4b3528301f1b44a1e250bda2bb7",
	OperationUserSearchHistory:    "ae37c4b99365c3db13d534a542aa095df050e890c082f677c06835f3665eca2e",
	OperationAreaSuggestionSearch: "ae60b499ae7d33a7e96f69fcf2c40ca7b88275169aee38e8cc844c76e5544f2a",
}

var operationNames = func() []string {
	names := make([]string, 0, len(operationHashes))
	for name := range operationHashes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}()

// Operations returns the registered operation names, sorted.
func Operations() []string {
	return append([]string(nil), operationNames...)
}

// OperationHash returns the persisted-query hash for an operation.
func OperationHash(operation string) (string, bool) {
	hash, ok := operationHashes[operation]
	return hash, ok
}
