package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sgpatel/ai-chat-api-assistant/internal/flow"
	"github.com/sgpatel/ai-chat-api-assistant/internal/openapi"
	"github.com/sgpatel/ai-chat-api-assistant/internal/storage"
)

const requestTimeout = 30 * time.Second

type Server struct {
	Router *chi.Mux

	addr    string
	catalog *openapi.Catalog
	engine  *flow.Engine
	store   storage.StateStore
	locks   *userLocks
	logger  *slog.Logger
	httpSrv *http.Server
}

func New(addr string, catalog *openapi.Catalog, engine *flow.Engine, store storage.StateStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:    addr,
		catalog: catalog,
		engine:  engine,
		store:   store,
		locks:   newUserLocks(),
		logger:  logger,
	}

	r := chi.NewRouter()

	// Apply middleware in order
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(TimeoutMiddleware(requestTimeout))
	r.Use(middleware.Recoverer)

	// Wrap with OpenTelemetry HTTP instrumentation
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "api-chat-assistant")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/chat/message", s.handleChatMessage)
		r.Delete("/chat/state/{userID}", s.handleResetState)
		r.Get("/operations", s.handleListOperations)
		r.Get("/operations/detail", s.handleOperationDetail)
	})
	r.Get("/healthz", s.handleHealth)

	s.Router = r
	return s
}

// Start begins serving in the background. Failures after bind are logged,
// not returned; use Shutdown to stop.
func (s *Server) Start() {
	s.httpSrv = &http.Server{
		Addr:         s.addr,
		Handler:      s.Router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		s.logger.Info("HTTP server listening", slog.String("addr", s.addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", slog.String("error", err.Error()))
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
