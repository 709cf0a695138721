package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tiktoken-go/tokenizer"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultModel           = "gpt-4o-mini"
	defaultTimeout         = 10 * time.Second
	defaultMaxPromptTokens = 512

	systemInstruction = "You rewrite form questions for a chat assistant. " +
		"Respond with a single friendly question that asks for the same value. " +
		"Reply with the question only."
)

// Option configures the rewriter.
type Option func(*Rewriter)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(r *Rewriter) {
		r.httpClient = httpClient
	}
}

// WithModel sets the completion model.
func WithModel(model string) Option {
	return func(r *Rewriter) {
		r.model = model
	}
}

// WithMaxPromptTokens caps the token count of the material sent upstream.
// Anything over the cap skips the rewrite and keeps the template text.
func WithMaxPromptTokens(n int) Option {
	return func(r *Rewriter) {
		r.maxPromptTokens = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Rewriter) {
		r.logger = logger
	}
}

// Rewriter rephrases template questions through an OpenAI-compatible chat
// completion endpoint. It is strictly best-effort: the caller falls back to
// the template on any error.
type Rewriter struct {
	baseURL         string
	apiKey          string
	model           string
	maxPromptTokens int
	httpClient      *http.Client
	logger          *slog.Logger
	codec           tokenizer.Codec
}

// New creates a rewriter against baseURL, which points at the /v1 root of
// an OpenAI-compatible service.
func New(baseURL, apiKey string, opts ...Option) *Rewriter {
	r := &Rewriter{
		baseURL:         strings.TrimSuffix(baseURL, "/"),
		apiKey:          apiKey,
		model:           defaultModel,
		maxPromptTokens: defaultMaxPromptTokens,
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	// Resolve the tokenizer once. A nil codec just disables the budget
	// guard; the rewrite itself still works.
	codec, err := tokenizer.ForModel(tokenizer.Model(r.model))
	if err != nil {
		codec, err = tokenizer.Get(tokenizer.O200kBase)
		if err != nil {
			r.logger.Debug("no tokenizer available, budget guard disabled", "model", r.model)
			codec = nil
		}
	}
	r.codec = codec

	return r
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Rewrite rephrases the template prompt for a parameter. It returns the
// template unchanged when the material would blow the token budget, and an
// error for any upstream failure.
func (r *Rewriter) Rewrite(ctx context.Context, prompt, parameterName string) (string, error) {
	userContent := fmt.Sprintf("Parameter: %s\nTemplate question: %s", parameterName, prompt)

	if r.codec != nil && r.maxPromptTokens > 0 {
		ids, _, err := r.codec.Encode(systemInstruction + userContent)
		if err == nil && len(ids) > r.maxPromptTokens {
			r.logger.Debug("prompt over token budget, keeping template",
				"parameter", parameterName,
				"tokens", len(ids),
				"budget", r.maxPromptTokens)
			return prompt, nil
		}
	}

	reqBody := chatCompletionRequest{
		Model: r.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: userContent},
		},
		Temperature: 0.3,
		MaxTokens:   120,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("rewrite request failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	rewritten := strings.TrimSpace(result.Choices[0].Message.Content)
	if rewritten == "" {
		return "", fmt.Errorf("completion returned empty content")
	}
	return rewritten, nil
}
