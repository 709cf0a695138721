package flow

import "time"

// State is one user's conversation record. The engine mutates it exactly
// once per turn; the caller persists it after every turn, including failed
// ones, so the error context survives for diagnosis.
type State struct {
	UserID               string         `json:"user_id"`
	TargetPath           string         `json:"target_path,omitempty"`
	TargetMethod         string         `json:"target_method,omitempty"`
	CollectedParameters  map[string]any `json:"collected_parameters"`
	RequiredParameters   []string       `json:"required_parameters"`
	AskedParameterNames  []string       `json:"asked_parameter_names"`
	NextParameterName    string         `json:"next_parameter_name,omitempty"`
	LastAssistantMessage string         `json:"last_assistant_message,omitempty"`
	LastUserMessage      string         `json:"last_user_message,omitempty"`
	ErrorMessage         string         `json:"error_message,omitempty"`
	LastUpdateTime       time.Time      `json:"last_update_time"`
}

// NewState creates an empty conversation record for a user.
func NewState(userID string) *State {
	return &State{
		UserID:              userID,
		CollectedParameters: map[string]any{},
	}
}

// HasTarget reports whether an endpoint has been selected.
func (s *State) HasTarget() bool {
	return s.TargetPath != "" && s.TargetMethod != ""
}

// SetTarget selects an endpoint and snapshots its required parameter names.
// The snapshot is not recomputed until the target changes again. Answers
// collected for the previous target are discarded.
func (s *State) SetTarget(path, method string, required []string) {
	s.TargetPath = path
	s.TargetMethod = method
	s.RequiredParameters = append([]string(nil), required...)
	s.CollectedParameters = map[string]any{}
	s.AskedParameterNames = nil
	s.NextParameterName = s.NextMissing()
}

// Collect stores one answered parameter and marks it asked.
func (s *State) Collect(name string, value any) {
	if s.CollectedParameters == nil {
		s.CollectedParameters = map[string]any{}
	}
	s.CollectedParameters[name] = value
	s.MarkAsked(name)
	s.NextParameterName = s.NextMissing()
}

// MarkAsked records that the user has been prompted for name.
func (s *State) MarkAsked(name string) {
	for _, asked := range s.AskedParameterNames {
		if asked == name {
			return
		}
	}
	s.AskedParameterNames = append(s.AskedParameterNames, name)
}

// NextMissing returns the first required name with no collected value, in
// snapshot order, or "" when every required parameter is present.
func (s *State) NextMissing() string {
	for _, name := range s.RequiredParameters {
		if _, ok := s.CollectedParameters[name]; !ok {
			return name
		}
	}
	return ""
}

// Clone returns a copy safe to hand across goroutines. Collection containers
// are copied; nested parameter values are shared, the engine never mutates
// them in place.
func (s *State) Clone() *State {
	out := *s
	out.CollectedParameters = make(map[string]any, len(s.CollectedParameters))
	for k, v := range s.CollectedParameters {
		out.CollectedParameters[k] = v
	}
	out.RequiredParameters = append([]string(nil), s.RequiredParameters...)
	out.AskedParameterNames = append([]string(nil), s.AskedParameterNames...)
	return &out
}
