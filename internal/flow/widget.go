package flow

import "github.com/sgpatel/ai-chat-api-assistant/internal/openapi"

// Widget kinds understood by the chat frontend.
const (
	WidgetDropdown       = "dropdown"
	WidgetDatePicker     = "date_picker"
	WidgetDateTimePicker = "datetime_picker"
	WidgetTextInput      = "text_input"
	WidgetNumberInput    = "number_input"
	WidgetCheckbox       = "checkbox"
	WidgetJSONInput      = "json_input"
	WidgetTagsInput      = "tags_input"
)

// UIComponent is the rendering hint attached to a prompt.
type UIComponent struct {
	Kind     string `json:"kind"`
	Options  []any  `json:"options,omitempty"`
	ItemType string `json:"item_type,omitempty"`
	Default  any    `json:"default,omitempty"`
}

// WidgetFor selects the widget for a parameter schema. This is a fixed
// lookup table: an enum always wins, arrays split on their item type, and
// anything unrecognized falls back to free text. The schema default, when
// present, rides along on the component.
func WidgetFor(schema openapi.ParameterSchema) *UIComponent {
	c := &UIComponent{Kind: WidgetTextInput, Default: schema.Default}

	switch {
	case len(schema.Enum) > 0:
		c.Kind = WidgetDropdown
		c.Options = schema.Enum
	case schema.Type == openapi.TypeString && schema.Format == "date":
		c.Kind = WidgetDatePicker
	case schema.Type == openapi.TypeString && schema.Format == "date-time":
		c.Kind = WidgetDateTimePicker
	case schema.Type == openapi.TypeString:
		c.Kind = WidgetTextInput
	case schema.Type == openapi.TypeInteger, schema.Type == openapi.TypeNumber:
		c.Kind = WidgetNumberInput
	case schema.Type == openapi.TypeBoolean:
		c.Kind = WidgetCheckbox
	case schema.Type == openapi.TypeArray:
		itemType, _ := schema.Items["type"].(string)
		if itemType == "" {
			itemType = openapi.TypeString
		}
		if itemType == openapi.TypeObject {
			c.Kind = WidgetJSONInput
		} else {
			c.Kind = WidgetTagsInput
			c.ItemType = itemType
		}
	case schema.Type == openapi.TypeObject:
		c.Kind = WidgetJSONInput
	}
	return c
}
