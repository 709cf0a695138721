package openapi

// extractV2 builds the parameter list for one Swagger 2.0 operation. Body
// declarations are processed first so their expanded properties win name
// collisions against query, header, path and formData declarations, matching
// the v3 ordering contract.
func (ex *extractor) extractV2(pathItem, op map[string]any) []ParameterInfo {
	var params []ParameterInfo
	seen := map[string]bool{}
	merged := ex.mergeParameterLists(pathItem["parameters"], op["parameters"])

	for _, m := range merged {
		if location, _ := m["in"].(string); location == LocationBody {
			params = ex.appendV2Body(params, seen, m)
		}
	}

	for _, m := range merged {
		name, _ := m["name"].(string)
		location, _ := m["in"].(string)
		if location == LocationBody || seen[name] {
			continue
		}
		if location == "" {
			ex.logger.Warn("skipping parameter without a location", "parameter", name)
			continue
		}

		// Non-body v2 parameters carry type, format, enum, default and items
		// directly on the declaration rather than under a schema key.
		schema := ex.normalize(m)
		description, _ := m["description"].(string)
		required, _ := m["required"].(bool)
		if location == LocationPath {
			required = true
		}

		seen[name] = true
		params = append(params, ParameterInfo{
			Name:        name,
			Description: description,
			Required:    required,
			Location:    location,
			Schema:      schema,
		})
	}
	return params
}

// appendV2Body expands one in:body declaration through the same
// classification as a v3 request body: object schemas (allOf composites
// included) flatten into body_property parameters and the body name itself
// is never emitted, scalar and array schemas stay a single body parameter
// under the declared name, and an unclassifiable schema produces nothing.
func (ex *extractor) appendV2Body(params []ParameterInfo, seen map[string]bool, m map[string]any) []ParameterInfo {
	frag, _ := m["schema"].(map[string]any)
	if frag == nil {
		return params
	}

	switch body := ex.classifyBody(frag); body.kind {
	case bodyObject:
		for _, p := range ex.expandBodyObject(body.properties, body.required) {
			seen[p.Name] = true
			params = append(params, p)
		}
	case bodyWhole:
		name, _ := m["name"].(string)
		if name == "" {
			name = wholeBodyName
		}
		required, _ := m["required"].(bool)
		schema := ex.normalize(body.whole)
		description, _ := m["description"].(string)
		if description == "" {
			description = schema.Description
		}
		seen[name] = true
		params = append(params, ParameterInfo{
			Name:        name,
			Description: description,
			Required:    required,
			Location:    LocationBody,
			Schema:      schema,
		})
	}
	return params
}
