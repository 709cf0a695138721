package flow

// Message types accepted on the turn surface.
const (
	MessageTypeIntent            = "intent"
	MessageTypeParameterResponse = "parameter_response"
)

// TurnInput is one inbound conversation message. Intent turns select the
// target operation; parameter turns answer the question asked last turn.
type TurnInput struct {
	UserID         string `json:"user_id"`
	MessageType    string `json:"message_type"`
	IntentText     string `json:"intent_text,omitempty"`
	TargetPath     string `json:"target_path,omitempty"`
	TargetMethod   string `json:"target_method,omitempty"`
	ParameterName  string `json:"parameter_name,omitempty"`
	ParameterValue any    `json:"parameter_value,omitempty"`
}

// Payload kinds. Every turn produces exactly one payload.
const (
	PayloadUIInstruction = "ui_instruction"
	PayloadFinalMessage  = "final_message"
	PayloadErrorMessage  = "error_message"
)

// Payload is the outbound message produced by a turn.
type Payload struct {
	Type        string       `json:"type"`
	Prompt      string       `json:"prompt,omitempty"`
	UIComponent *UIComponent `json:"ui_component,omitempty"`
	Text        string       `json:"text,omitempty"`
}

// UIInstruction asks the user for the next parameter.
func UIInstruction(prompt string, component *UIComponent) Payload {
	return Payload{Type: PayloadUIInstruction, Prompt: prompt, UIComponent: component}
}

// FinalMessage reports a completed operation.
func FinalMessage(text string) Payload {
	return Payload{Type: PayloadFinalMessage, Text: text}
}

// ErrorMessage reports a failed turn.
func ErrorMessage(text string) Payload {
	return Payload{Type: PayloadErrorMessage, Text: text}
}
