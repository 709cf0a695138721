package openapi

// Dialect identifies which description format a document uses.
type Dialect string

const (
	// DialectV2 is Swagger 2.0, detected by a top-level swagger: "2.0".
	DialectV2 Dialect = "swagger2"
	// DialectV3 is OpenAPI 3.x, detected by a top-level openapi: "3.*".
	DialectV3 Dialect = "openapi3"
)

// Canonical parameter locations. Body objects are flattened into one
// body_property entry per property; a non-object payload stays a single
// body entry.
const (
	LocationPath         = "path"
	LocationQuery        = "query"
	LocationHeader       = "header"
	LocationCookie       = "cookie"
	LocationBody         = "body"
	LocationBodyProperty = "body_property"
)

// Canonical schema types.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
)

// ParameterSchema is the normalized schema for one parameter. Type is always
// set; everything else is carried through from the source fragment when
// present. Items and Properties keep their raw fragment shape so downstream
// consumers can inspect nested details without another parse.
type ParameterSchema struct {
	Type                 string         `json:"type"`
	Description          string         `json:"description,omitempty"`
	Format               string         `json:"format,omitempty"`
	Enum                 []any          `json:"enum,omitempty"`
	Default              any            `json:"default,omitempty"`
	Items                map[string]any `json:"items,omitempty"`
	Properties           map[string]any `json:"properties,omitempty"`
	AdditionalProperties any            `json:"additional_properties,omitempty"`
}

// ParameterInfo describes one input an operation accepts.
type ParameterInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Required    bool            `json:"required"`
	Location    string          `json:"location"`
	Schema      ParameterSchema `json:"schema"`
}

// EndpointInfo is the canonical description of one operation: identity,
// summary, and the ordered parameter list (body-derived parameters first,
// then named path/query/header parameters).
type EndpointInfo struct {
	Path        string          `json:"path"`
	Method      string          `json:"method"`
	Summary     string          `json:"summary,omitempty"`
	OperationID string          `json:"operation_id,omitempty"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// RequiredParameterNames returns the names of required parameters in the
// order they appear in the endpoint's parameter list.
func (e *EndpointInfo) RequiredParameterNames() []string {
	var names []string
	for _, p := range e.Parameters {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// Parameter returns the parameter with the given name, or nil.
func (e *EndpointInfo) Parameter(name string) *ParameterInfo {
	for i := range e.Parameters {
		if e.Parameters[i].Name == name {
			return &e.Parameters[i]
		}
	}
	return nil
}

// OperationRef identifies one operation in a catalog listing.
type OperationRef struct {
	ID      string `json:"id"`
	Summary string `json:"summary,omitempty"`
	Path    string `json:"path"`
	Method  string `json:"method"`
}
