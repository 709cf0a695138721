package openapi

import "errors"

// Document-level failures are fatal at startup: the catalog must not serve
// from a partially loaded specification. Endpoint lookups degrade per call.
var (
	ErrSpecNotFound     = errors.New("specification file not found")
	ErrSpecParse        = errors.New("specification could not be parsed")
	ErrSpecStructure    = errors.New("specification structure invalid")
	ErrEndpointNotFound = errors.New("endpoint not found")
)
