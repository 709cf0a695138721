package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sgpatel/ai-chat-api-assistant/internal/apiclient"
)

const (
	// maxDisplayLength caps how much response body is echoed into the chat.
	maxDisplayLength = 700
	// maxListPreview is how many array elements are shown before eliding.
	maxListPreview = 3
)

// FormatResult turns an API response into the closing chat payload. A 2xx
// response becomes a final message, anything else an error message; neither
// is a Go error because the turn itself succeeded.
func FormatResult(res *apiclient.Result) Payload {
	if res.Success() {
		return FinalMessage("✅ " + successText(res))
	}
	return ErrorMessage("⚠️ " + errorText(res))
}

func successText(res *apiclient.Result) string {
	if res.StatusCode == 204 || len(res.RawBody) == 0 {
		return "The operation completed successfully (no content returned)."
	}
	return truncate(renderBody(res.Body))
}

func errorText(res *apiclient.Result) string {
	text := fmt.Sprintf("The API reported a problem (status %d)", res.StatusCode)
	if len(res.RawBody) == 0 {
		return text + "."
	}
	if body := truncate(renderBody(res.Body)); body != "" {
		text += ": " + body
	}
	return text
}

// renderBody produces a human-oriented rendering of a decoded response
// body. Objects prefer their "message" or "detail" field, arrays show a
// short preview, and everything else is pretty-printed JSON.
func renderBody(body any) string {
	switch v := body.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		if msg, ok := v["message"].(string); ok && msg != "" {
			return msg
		}
		if detail, ok := v["detail"].(string); ok && detail != "" {
			return detail
		}
		return prettyJSON(v)
	case []any:
		if len(v) <= maxListPreview {
			return prettyJSON(v)
		}
		preview := prettyJSON(v[:maxListPreview])
		return preview + fmt.Sprintf("\n…and %d more", len(v)-maxListPreview)
	default:
		return prettyJSON(v)
	}
}

func prettyJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// truncate shortens to maxDisplayLength runes, appending an ellipsis when
// anything was cut. Counting runes keeps multi-byte text intact.
func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxDisplayLength {
		return s
	}
	return string(runes[:maxDisplayLength]) + "…"
}

// CallFailureText maps a transport-level call failure to the chat text
// shown to the user. The three CallError kinds each get a dedicated
// wording; anything else gets a generic one.
func CallFailureText(err error) string {
	var callErr *apiclient.CallError
	if errors.As(err, &callErr) {
		switch callErr.Kind {
		case apiclient.KindTimeout:
			return "⚠️ The API did not respond in time. Please try again."
		case apiclient.KindConnection:
			return "⚠️ The API could not be reached. Please try again later."
		case apiclient.KindMissingPathParam:
			return fmt.Sprintf("⚠️ The request could not be built: no value was collected for path parameter %q.", callErr.Param)
		}
	}
	return "⚠️ The API call failed unexpectedly."
}

// renderUserValue is how a raw parameter answer is remembered in the
// transcript fields of the state.
func renderUserValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return strings.TrimSpace(string(data))
	}
}
