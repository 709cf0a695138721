package flow

import (
	"encoding/json"
	"strings"
)

// coerceValue upgrades string answers that look like JSON composites into
// their decoded form. Only strings whose trimmed body is bracketed as an
// array or object are attempted; a parse failure keeps the raw string so a
// literal answer like "[sic]" never turns into an error.
func coerceValue(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	trimmed := strings.TrimSpace(s)
	looksJSON := (strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) ||
		(strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}"))
	if !looksJSON {
		return v
	}
	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return v
	}
	return decoded
}
