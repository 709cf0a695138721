package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sgpatel/ai-chat-api-assistant/internal/apiclient"
	"github.com/sgpatel/ai-chat-api-assistant/internal/openapi"
)

// Caller performs the outbound API invocation once collection finishes.
// apiclient.Client satisfies this; tests substitute a stub.
type Caller interface {
	Call(ctx context.Context, pathTemplate, method string, params map[string]any) (*apiclient.Result, error)
}

// PromptRewriter rephrases a template question before it is shown. A nil
// rewriter, a rewrite error, or an empty rewrite all fall back to the
// template text.
type PromptRewriter interface {
	Rewrite(ctx context.Context, prompt, parameterName string) (string, error)
}

// Engine drives one conversation turn at a time. It owns no state of its
// own: the caller passes the conversation state in and persists it after.
type Engine struct {
	catalog  *openapi.Catalog
	caller   Caller
	rewriter PromptRewriter
	logger   *slog.Logger
	tracer   trace.Tracer
}

// EngineOption configures optional engine collaborators.
type EngineOption func(*Engine)

// WithRewriter attaches a prompt rewriter.
func WithRewriter(r PromptRewriter) EngineOption {
	return func(e *Engine) {
		e.rewriter = r
	}
}

// NewEngine builds a turn engine over an operation catalog and an outbound
// caller.
func NewEngine(catalog *openapi.Catalog, caller Caller, logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		catalog: catalog,
		caller:  caller,
		logger:  logger,
		tracer:  otel.Tracer("flow"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessTurn advances the conversation by one user message and returns the
// payload to send back. The state is mutated in place; it is updated even
// when the turn fails so the transcript fields stay accurate.
func (e *Engine) ProcessTurn(ctx context.Context, st *State, in TurnInput) Payload {
	ctx, span := e.tracer.Start(ctx, "turn.process",
		trace.WithAttributes(attribute.String("turn.type", in.MessageType)))
	defer span.End()

	st.LastUpdateTime = time.Now().UTC()

	switch in.MessageType {
	case MessageTypeIntent:
		return e.processIntent(ctx, st, in)
	case MessageTypeParameterResponse:
		return e.processParameter(ctx, st, in)
	default:
		return e.failTurn(st, fmt.Sprintf("Unsupported message type %q.", in.MessageType))
	}
}

func (e *Engine) processIntent(ctx context.Context, st *State, in TurnInput) Payload {
	st.LastUserMessage = in.IntentText

	if in.TargetPath == "" || in.TargetMethod == "" {
		return e.failTurn(st, "An intent message must name a target path and method.")
	}

	info, err := e.catalog.Get(in.TargetPath, in.TargetMethod)
	if err != nil {
		// The previous target, if any, stays selected.
		e.logger.Warn("intent names unknown operation",
			"path", in.TargetPath,
			"method", in.TargetMethod,
			"error", err)
		return e.failTurn(st, fmt.Sprintf("No operation %s %s exists in the API description.",
			strings.ToUpper(in.TargetMethod), in.TargetPath))
	}

	st.SetTarget(info.Path, info.Method, info.RequiredParameterNames())
	st.ErrorMessage = ""
	e.logger.Info("target selected",
		"user_id", st.UserID,
		"path", info.Path,
		"method", info.Method,
		"required", len(st.RequiredParameters))

	if next := st.NextMissing(); next != "" {
		return e.askFor(ctx, st, info, next)
	}
	return e.invokeCall(ctx, st, info)
}

func (e *Engine) processParameter(ctx context.Context, st *State, in TurnInput) Payload {
	if in.ParameterName == "" {
		return e.failTurn(st, "A parameter response must name the parameter it answers.")
	}
	if !st.HasTarget() {
		return e.failTurn(st, "No operation is selected yet. Send an intent first.")
	}

	// Re-resolve the target before accepting the value. A spec swap between
	// turns must not let answers accumulate against a vanished operation.
	info, err := e.catalog.Get(st.TargetPath, st.TargetMethod)
	if err != nil {
		e.logger.Error("stored target no longer resolves",
			"user_id", st.UserID,
			"path", st.TargetPath,
			"method", st.TargetMethod,
			"error", err)
		return e.failTurn(st, "The selected operation is no longer available. Please start over.")
	}

	value := coerceValue(in.ParameterValue)
	st.Collect(in.ParameterName, value)
	st.LastUserMessage = renderUserValue(in.ParameterValue)

	if next := st.NextMissing(); next != "" {
		return e.askFor(ctx, st, info, next)
	}
	return e.invokeCall(ctx, st, info)
}

// askFor emits the question for the next missing parameter.
func (e *Engine) askFor(ctx context.Context, st *State, info *openapi.EndpointInfo, name string) Payload {
	param := info.Parameter(name)
	if param == nil {
		e.logger.Error("required parameter missing from endpoint description",
			"user_id", st.UserID,
			"parameter", name,
			"path", info.Path,
			"method", info.Method)
		return e.failTurn(st, "The conversation state no longer matches the API description. Please start over.")
	}

	prompt := PromptFor(*param)
	if e.rewriter != nil {
		rewritten, err := e.rewriter.Rewrite(ctx, prompt, name)
		if err != nil || strings.TrimSpace(rewritten) == "" {
			e.logger.Debug("prompt rewrite unavailable, using template",
				"parameter", name,
				"error", err)
		} else {
			prompt = rewritten
		}
	}

	st.NextParameterName = name
	st.MarkAsked(name)
	st.LastAssistantMessage = prompt
	return UIInstruction(prompt, WidgetFor(param.Schema))
}

// invokeCall performs the outbound request and closes the collection phase.
func (e *Engine) invokeCall(ctx context.Context, st *State, info *openapi.EndpointInfo) Payload {
	params := make(map[string]any, len(st.CollectedParameters))
	for k, v := range st.CollectedParameters {
		params[k] = v
	}

	res, err := e.caller.Call(ctx, info.Path, info.Method, params)
	if err != nil {
		e.logger.Warn("outbound call failed",
			"user_id", st.UserID,
			"path", info.Path,
			"method", info.Method,
			"error", err)
		return e.failTurn(st, CallFailureText(err))
	}

	payload := FormatResult(res)
	st.NextParameterName = ""
	st.LastAssistantMessage = payload.Text
	if payload.Type == PayloadErrorMessage {
		st.ErrorMessage = payload.Text
	} else {
		st.ErrorMessage = ""
	}
	e.logger.Info("outbound call completed",
		"user_id", st.UserID,
		"path", info.Path,
		"method", info.Method,
		"status", res.StatusCode)
	return payload
}

// failTurn records the failure on the state and returns it as the payload.
// Collected parameters are never discarded here.
func (e *Engine) failTurn(st *State, text string) Payload {
	st.ErrorMessage = text
	st.LastAssistantMessage = text
	return ErrorMessage(text)
}
