package openapi

import (
	"log/slog"
	"sort"
)

// extractor turns raw operation fragments into canonical parameter lists.
// One extractor serves a single document; it never mutates the document tree.
type extractor struct {
	doc    *Document
	logger *slog.Logger
}

// bodyKind tags the classified shape of a request-body schema. Exactly one
// expansion strategy applies per kind.
type bodyKind int

const (
	bodyNone   bodyKind = iota // no usable body schema
	bodyObject                 // object schema, expanded property by property
	bodyWhole                  // scalar or array payload kept as one parameter
)

// bodySchema is the classified request-body schema after reference
// resolution and allOf merging.
type bodySchema struct {
	kind       bodyKind
	properties map[string]any // bodyObject
	required   []string       // bodyObject, effective order
	whole      map[string]any // bodyWhole
}

// classifyBody resolves and classifies a request-body schema fragment. An
// allOf composite always merges into an object, even when no branch
// contributes properties.
func (ex *extractor) classifyBody(frag map[string]any) bodySchema {
	schema := ex.doc.deref(frag)

	if branches, ok := schema["allOf"].([]any); ok {
		props, required := ex.mergeAllOf(branches)
		return bodySchema{kind: bodyObject, properties: props, required: required}
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		return bodySchema{kind: bodyObject, properties: props, required: stringList(schema["required"])}
	}
	switch schema["type"] {
	case TypeArray, TypeString, TypeNumber, TypeInteger, TypeBoolean:
		return bodySchema{kind: bodyWhole, whole: schema}
	}
	return bodySchema{kind: bodyNone}
}

// mergeAllOf combines composite branches into one synthetic object. Branches
// are visited in list order; only object branches (type object or a
// properties key) contribute, and a later branch's definition of a property
// name overwrites an earlier one. Required names are unioned across all
// branches and sorted.
func (ex *extractor) mergeAllOf(branches []any) (map[string]any, []string) {
	props := map[string]any{}
	requiredSet := map[string]bool{}

	for _, branch := range branches {
		m, ok := branch.(map[string]any)
		if !ok {
			continue
		}
		m = ex.doc.deref(m)

		branchProps, hasProps := m["properties"].(map[string]any)
		if m["type"] != TypeObject && !hasProps {
			ex.logger.Debug("skipping non-object allOf branch")
			continue
		}
		for name, prop := range branchProps {
			props[name] = prop
		}
		for _, name := range stringList(m["required"]) {
			requiredSet[name] = true
		}
	}

	required := make([]string, 0, len(requiredSet))
	for name := range requiredSet {
		required = append(required, name)
	}
	sort.Strings(required)
	return props, required
}

// expandBodyObject flattens an object body into one body_property parameter
// per property. Required properties come first, in the effective required
// order; optional properties follow sorted by name. Required names that have
// no matching property produce nothing.
func (ex *extractor) expandBodyObject(props map[string]any, required []string) []ParameterInfo {
	requiredSet := map[string]bool{}
	var ordered []string
	for _, name := range required {
		if _, ok := props[name]; ok && !requiredSet[name] {
			requiredSet[name] = true
			ordered = append(ordered, name)
		}
	}
	var optional []string
	for name := range props {
		if !requiredSet[name] {
			optional = append(optional, name)
		}
	}
	sort.Strings(optional)
	ordered = append(ordered, optional...)

	params := make([]ParameterInfo, 0, len(ordered))
	for _, name := range ordered {
		schema := ex.normalize(ex.derefAny(props[name]))
		params = append(params, ParameterInfo{
			Name:        name,
			Description: schema.Description,
			Required:    requiredSet[name],
			Location:    LocationBodyProperty,
			Schema:      schema,
		})
	}
	return params
}

// derefAny follows a top-level $ref on a fragment of unknown shape.
func (ex *extractor) derefAny(v any) any {
	if m, ok := v.(map[string]any); ok {
		if _, hasRef := m["$ref"]; hasRef {
			return ex.doc.deref(m)
		}
	}
	return v
}

// mergeParameterLists merges path-item-level and operation-level parameter
// declarations keyed by name. Operation-level entries override path-item
// entries with the same name, keeping the original position; new names are
// appended in declaration order. Entries with no name are dropped.
func (ex *extractor) mergeParameterLists(pathLevel, opLevel any) []map[string]any {
	var order []string
	byName := map[string]map[string]any{}

	for _, list := range []any{pathLevel, opLevel} {
		entries, ok := list.([]any)
		if !ok {
			continue
		}
		for _, entry := range entries {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			name, _ := m["name"].(string)
			if name == "" {
				ex.logger.Debug("skipping parameter declaration without a name")
				continue
			}
			if _, exists := byName[name]; !exists {
				order = append(order, name)
			}
			byName[name] = m
		}
	}

	merged := make([]map[string]any, 0, len(order))
	for _, name := range order {
		merged = append(merged, byName[name])
	}
	return merged
}

// stringList converts a decoded list into its string elements, in order.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
