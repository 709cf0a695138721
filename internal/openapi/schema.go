package openapi

import "math"

// normalize converts a raw schema fragment into a ParameterSchema. The type
// is inferred by a fixed precedence, first match wins:
//
//  1. an explicit type key is used verbatim;
//  2. a properties key means object;
//  3. an items key means array;
//  4. allOf, oneOf or anyOf means object (oneOf/anyOf variants are not
//     merged; the composite collapses to a plain object);
//  5. an enum's first element decides between boolean, integer, number and
//     string;
//  6. otherwise the type defaults to string.
//
// Anything that is not a fragment at all also normalizes to a plain string
// schema. The caller resolves a top-level $ref before normalizing.
func (ex *extractor) normalize(frag any) ParameterSchema {
	m, ok := frag.(map[string]any)
	if !ok {
		return ParameterSchema{Type: TypeString}
	}

	schema := ParameterSchema{Type: inferType(m)}
	if schema.Type == "" {
		schema.Type = TypeString
		ex.logger.Warn("schema fragment carries no type information, assuming string")
	}

	if v, ok := m["description"].(string); ok {
		schema.Description = v
	}
	if v, ok := m["format"].(string); ok {
		schema.Format = v
	}
	if v, ok := m["enum"].([]any); ok {
		schema.Enum = v
	}
	if v, ok := m["default"]; ok {
		schema.Default = v
	}
	if v, ok := m["items"].(map[string]any); ok {
		schema.Items = v
	}
	if v, ok := m["properties"].(map[string]any); ok {
		schema.Properties = v
	}
	if v, ok := m["additionalProperties"]; ok {
		schema.AdditionalProperties = v
	}
	return schema
}

// inferType returns the canonical type for a fragment, or "" when nothing in
// the fragment indicates one.
func inferType(m map[string]any) string {
	if t, ok := m["type"].(string); ok && t != "" {
		return t
	}
	if _, ok := m["properties"]; ok {
		return TypeObject
	}
	if _, ok := m["items"]; ok {
		return TypeArray
	}
	for _, key := range []string{"allOf", "oneOf", "anyOf"} {
		if _, ok := m[key]; ok {
			return TypeObject
		}
	}
	if enum, ok := m["enum"].([]any); ok && len(enum) > 0 {
		return enumElementType(enum[0])
	}
	return ""
}

// enumElementType maps an enum element's native kind to a canonical type.
// JSON decoding yields float64 for every number, so integral floats count as
// integers; YAML decoding yields int for integer literals directly.
func enumElementType(v any) string {
	switch n := v.(type) {
	case bool:
		return TypeBoolean
	case int, int64:
		return TypeInteger
	case float64:
		if n == math.Trunc(n) {
			return TypeInteger
		}
		return TypeNumber
	default:
		return TypeString
	}
}
