// Package assistant assembles the guided API chat assistant and manages
// its HTTP server lifecycle. It can be embedded in larger applications
// or run standalone via cmd/assistant.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/sgpatel/ai-chat-api-assistant/internal/apiclient"
	"github.com/sgpatel/ai-chat-api-assistant/internal/config"
	"github.com/sgpatel/ai-chat-api-assistant/internal/flow"
	"github.com/sgpatel/ai-chat-api-assistant/internal/openapi"
	"github.com/sgpatel/ai-chat-api-assistant/internal/rewrite"
	"github.com/sgpatel/ai-chat-api-assistant/internal/server"
	"github.com/sgpatel/ai-chat-api-assistant/internal/storage"
	"github.com/sgpatel/ai-chat-api-assistant/internal/storage/memory"
	"github.com/sgpatel/ai-chat-api-assistant/internal/storage/sqlite"
)

// Assistant wires the API description catalog, conversation engine,
// state store, and HTTP server together.
type Assistant struct {
	cfg     *config.Config
	logger  *slog.Logger
	catalog *openapi.Catalog
	caller  flow.Caller
	store   storage.StateStore
	server  *server.Server
}

// Option is a functional option for configuring an Assistant.
type Option func(*Assistant) error

// WithConfigFile loads configuration from the YAML file at path.
func WithConfigFile(path string) Option {
	return func(a *Assistant) error {
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		a.cfg = cfg
		return nil
	}
}

// WithConfig injects an already-built configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *Assistant) error {
		a.cfg = cfg
		return nil
	}
}

// WithLogger sets the logger used by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) error {
		a.logger = logger
		return nil
	}
}

// WithCaller replaces the outbound API client, mainly for tests.
func WithCaller(caller flow.Caller) Option {
	return func(a *Assistant) error {
		a.caller = caller
		return nil
	}
}

// WithStore replaces the conversation state store.
func WithStore(store storage.StateStore) Option {
	return func(a *Assistant) error {
		a.store = store
		return nil
	}
}

// New creates an Assistant with the given options. Configuration falls
// back to ./config.yaml plus environment variables when no config option
// is given. The API description named by the config must load cleanly;
// a broken or missing description file fails construction.
func New(opts ...Option) (*Assistant, error) {
	a := &Assistant{}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if a.cfg == nil {
		cfg, err := config.Load("config.yaml")
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		a.cfg = cfg
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: a.cfg.Log.LogLevel(),
		}))
	}

	doc, err := openapi.Load(a.cfg.Spec.File)
	if err != nil {
		return nil, fmt.Errorf("load API description: %w", err)
	}
	a.catalog = openapi.NewCatalog(doc, a.logger)

	if a.caller == nil {
		a.caller = apiclient.New(a.cfg.Target.BaseURL,
			apiclient.WithTimeout(a.cfg.Target.TimeoutDuration()),
			apiclient.WithAuth(a.cfg.Target.AuthScheme, a.cfg.Target.APIKey),
			apiclient.WithLogger(a.logger),
		)
	}

	if a.store == nil {
		store, err := openStore(a.cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("open state store: %w", err)
		}
		a.store = store
	}

	var engineOpts []flow.EngineOption
	if a.cfg.Rewrite.Enabled {
		engineOpts = append(engineOpts, flow.WithRewriter(rewrite.New(
			a.cfg.Rewrite.BaseURL,
			a.cfg.Rewrite.APIKey,
			rewrite.WithModel(a.cfg.Rewrite.Model),
			rewrite.WithMaxPromptTokens(a.cfg.Rewrite.MaxPromptTokens),
			rewrite.WithLogger(a.logger),
		)))
	}
	engine := flow.NewEngine(a.catalog, a.caller, a.logger, engineOpts...)

	a.server = server.New(a.cfg.Server.Addr, a.catalog, engine, a.store, a.logger)

	return a, nil
}

func openStore(cfg config.StorageConfig) (storage.StateStore, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return sqlite.New(cfg.DSN)
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Start begins serving HTTP in the background.
func (a *Assistant) Start() {
	a.server.Start()
	a.logger.Info("assistant started",
		slog.String("addr", a.cfg.Server.Addr),
		slog.String("spec", a.cfg.Spec.File),
		slog.Int("operations", len(a.catalog.List())),
	)
}

// Shutdown stops the HTTP server, then closes the state store. A server
// shutdown error is returned; store close failures are only logged.
func (a *Assistant) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down assistant")

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("failed to shutdown server", slog.String("error", err.Error()))
		return err
	}

	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close state store", slog.String("error", err.Error()))
	}

	a.logger.Info("assistant shutdown complete")
	return nil
}

// Router exposes the HTTP routes, useful for embedding or tests.
func (a *Assistant) Router() http.Handler {
	return a.server.Router
}

// Config returns the resolved configuration.
func (a *Assistant) Config() *config.Config {
	return a.cfg
}

// Catalog returns the loaded operation catalog.
func (a *Assistant) Catalog() *openapi.Catalog {
	return a.catalog
}
