package openapi

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

// Catalog is the queryable view over one loaded document. It is built once
// at startup and read-only afterwards, so it is safe to share across every
// concurrent conversation. Endpoint details are extracted fresh on each Get;
// callers that need caching do it themselves.
type Catalog struct {
	doc    *Document
	logger *slog.Logger
	ex     *extractor
}

// NewCatalog builds a catalog over a parsed document.
func NewCatalog(doc *Document, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		doc:    doc,
		logger: logger,
		ex:     &extractor{doc: doc, logger: logger},
	}
}

// Dialect reports the underlying document's description format.
func (c *Catalog) Dialect() Dialect {
	return c.doc.Dialect()
}

// List returns every operation in the document, sorted by path then method.
func (c *Catalog) List() []OperationRef {
	var refs []OperationRef
	for path, item := range c.doc.paths() {
		pathItem, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for method, raw := range pathItem {
			if !httpMethods[strings.ToLower(method)] {
				continue
			}
			op, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			summary, _ := op["summary"].(string)
			id, _ := op["operationId"].(string)
			if id == "" {
				id = fallbackOperationID(method, path)
			}
			refs = append(refs, OperationRef{
				ID:      id,
				Summary: summary,
				Path:    path,
				Method:  strings.ToUpper(method),
			})
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Path != refs[j].Path {
			return refs[i].Path < refs[j].Path
		}
		return refs[i].Method < refs[j].Method
	})
	return refs
}

// Get returns the full endpoint description for one (path, method) pair.
func (c *Catalog) Get(path, method string) (*EndpointInfo, error) {
	pathItem, ok := c.doc.paths()[path].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrEndpointNotFound, method, path)
	}
	op, ok := pathItem[strings.ToLower(method)].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrEndpointNotFound, method, path)
	}

	var params []ParameterInfo
	switch c.doc.Dialect() {
	case DialectV2:
		params = c.ex.extractV2(pathItem, op)
	default:
		params = c.ex.extractV3(pathItem, op)
	}

	summary, _ := op["summary"].(string)
	operationID, _ := op["operationId"].(string)
	return &EndpointInfo{
		Path:        path,
		Method:      strings.ToUpper(method),
		Summary:     summary,
		OperationID: operationID,
		Parameters:  params,
	}, nil
}

// fallbackOperationID derives a stable identifier for operations that
// declare no operationId, e.g. "get_items_id" for GET /items/{id}.
func fallbackOperationID(method, path string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(method + "_" + path) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
