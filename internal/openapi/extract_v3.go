package openapi

// wholeBodyName names the single parameter emitted for a non-object request
// body, which carries no name of its own in the v3 dialect.
const wholeBodyName = "body"

// extractV3 builds the parameter list for one OpenAPI 3.x operation:
// request-body parameters first, then the merged path-item and operation
// parameter declarations. A named parameter whose name was already produced
// as a body property is skipped; the first extraction wins.
func (ex *extractor) extractV3(pathItem, op map[string]any) []ParameterInfo {
	var params []ParameterInfo
	seen := map[string]bool{}

	params = ex.appendV3Body(params, seen, op)

	for _, m := range ex.mergeParameterLists(pathItem["parameters"], op["parameters"]) {
		name, _ := m["name"].(string)
		if seen[name] {
			continue
		}
		location, _ := m["in"].(string)
		if location == "" {
			ex.logger.Warn("skipping parameter without a location", "parameter", name)
			continue
		}

		schema := ex.normalize(ex.derefAny(m["schema"]))
		description, _ := m["description"].(string)
		if description == "" {
			description = schema.Description
		}
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

// appendV3Body expands the operation's request body. Only the
// application/json content entry is consulted; other content types are
// ignored, as is a body whose schema cannot be classified.
func (ex *extractor) appendV3Body(params []ParameterInfo, seen map[string]bool, op map[string]any) []ParameterInfo {
	requestBody, _ := op["requestBody"].(map[string]any)
	content, _ := requestBody["content"].(map[string]any)
	jsonContent, _ := content["application/json"].(map[string]any)
	frag, _ := jsonContent["schema"].(map[string]any)
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
		required, _ := requestBody["required"].(bool)
		schema := ex.normalize(body.whole)
		seen[wholeBodyName] = true
		params = append(params, ParameterInfo{
			Name:        wholeBodyName,
			Description: schema.Description,
			Required:    required,
			Location:    LocationBody,
			Schema:      schema,
		})
	}
	return params
}
