package openapi

import "strings"

// Reference bases are fixed per dialect. Anything else, including non-local
// references, resolves to an empty fragment; a broken reference degrades one
// parameter rather than aborting the parse.
const (
	refBaseV2 = "#/definitions/"
	refBaseV3 = "#/components/schemas/"
)

// resolveRef returns the fragment a local reference points to, or an empty
// fragment when the reference is non-local, outside the dialect's schema
// section, or names a missing entry.
func (d *Document) resolveRef(ref string) map[string]any {
	var name string
	var section map[string]any

	switch d.dialect {
	case DialectV2:
		if !strings.HasPrefix(ref, refBaseV2) {
			return map[string]any{}
		}
		name = strings.TrimPrefix(ref, refBaseV2)
		section, _ = d.root["definitions"].(map[string]any)
	case DialectV3:
		if !strings.HasPrefix(ref, refBaseV3) {
			return map[string]any{}
		}
		name = strings.TrimPrefix(ref, refBaseV3)
		components, _ := d.root["components"].(map[string]any)
		section, _ = components["schemas"].(map[string]any)
	default:
		return map[string]any{}
	}

	if name == "" || strings.Contains(name, "/") {
		return map[string]any{}
	}
	target, _ := section[name].(map[string]any)
	if target == nil {
		return map[string]any{}
	}
	return target
}

// deref follows a fragment's own $ref, if any. Fragments nested deeper than
// the top level are left untouched; only the fragment handed to the
// normalizer is resolved.
func (d *Document) deref(frag map[string]any) map[string]any {
	if frag == nil {
		return map[string]any{}
	}
	if ref, ok := frag["$ref"].(string); ok {
		return d.resolveRef(ref)
	}
	return frag
}
