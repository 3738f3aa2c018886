package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/fdg312/nutri-coach/internal/ai"
	"github.com/fdg312/nutri-coach/internal/auth"
	"github.com/fdg312/nutri-coach/internal/blob"
	"github.com/fdg312/nutri-coach/internal/chat"
	"github.com/fdg312/nutri-coach/internal/config"
	"github.com/fdg312/nutri-coach/internal/mealplans"
	"github.com/fdg312/nutri-coach/internal/nutrition"
	"github.com/fdg312/nutri-coach/internal/profiles"
	"github.com/fdg312/nutri-coach/internal/reports"
	"github.com/fdg312/nutri-coach/internal/storage"
	"github.com/fdg312/nutri-coach/internal/storage/memory"
	"github.com/fdg312/nutri-coach/internal/storage/postgres"
)

const shutdownTimeout = 10 * time.Second

// Server представляет HTTP сервер
type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	storage        storage.Storage
	provider       ai.Provider
	blobStore      blob.Store
	authMiddleware *auth.Middleware
}

// Option overrides a dependency before routes are registered.
type Option func(*Server)

// WithStorage forces a storage backend instead of the one picked from DATABASE_URL.
func WithStorage(st storage.Storage) Option {
	return func(s *Server) { s.storage = st }
}

// WithProvider forces the model provider.
func WithProvider(p ai.Provider) Option {
	return func(s *Server) { s.provider = p }
}

// WithBlobStore forces the export blob store.
func WithBlobStore(b blob.Store) Option {
	return func(s *Server) { s.blobStore = b }
}

// New создаёт новый HTTP сервер
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.storage == nil {
		s.initStorage(ctx)
	}

	if s.provider == nil {
		provider, err := ai.NewProvider(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("init ai provider: %w", err)
		}
		s.provider = provider
	}

	if s.blobStore == nil {
		store, mode, err := blob.NewBlobStore(ctx, cfg.Blob, log.Logger)
		if err != nil {
			return nil, fmt.Errorf("init blob store: %w", err)
		}
		log.Info().Str("mode", mode).Msg("exports storage ready")
		s.blobStore = store
	}

	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

// initStorage инициализирует storage (Memory или Postgres)
func (s *Server) initStorage(ctx context.Context) {
	if s.config.DatabaseURL == "" {
		log.Info().Msg("using in-memory storage")
		s.storage = memory.New()
		return
	}

	log.Info().Msg("connecting to PostgreSQL")
	pgStorage, err := postgres.New(ctx, s.config.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("PostgreSQL unavailable, falling back to in-memory storage")
		s.storage = memory.New()
		return
	}
	log.Info().Msg("PostgreSQL connected")
	s.storage = pgStorage
}

// routes регистрирует маршруты
func (s *Server) routes() error {
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	// Auth API
	authService := auth.NewService(s.config)
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService)
	s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)

	// Profile + targets
	profileService := profiles.NewService(s.storage)
	targetsService, err := nutrition.NewService(profileService)
	if err != nil {
		return fmt.Errorf("init nutrition service: %w", err)
	}

	profileHandler := profiles.NewHandler(profileService, targetsService)
	s.mux.HandleFunc("GET /v1/profile", profileHandler.HandleGet)
	s.mux.HandleFunc("PUT /v1/profile", profileHandler.HandlePut)
	s.mux.HandleFunc("DELETE /v1/profile", profileHandler.HandleDelete)

	targetsHandler := nutrition.NewHandlers(targetsService)
	s.mux.HandleFunc("GET /v1/nutrition/targets", targetsHandler.HandleGet)
	s.mux.HandleFunc("POST /v1/nutrition/targets/preview", targetsHandler.HandlePreview)

	// Meal plans
	generator := mealplans.NewGenerator(s.provider, s.storage, mealplans.NewPromptBuilder(s.config.PlanLocality))
	profileService.SetPlanDiscarder(generator)
	planService := mealplans.NewService(targetsService, generator)
	planHandler := mealplans.NewHandler(planService)
	s.mux.HandleFunc("POST /v1/meal-plans/generate", planHandler.HandleGenerate)
	s.mux.HandleFunc("GET /v1/meal-plans/current", planHandler.HandleCurrent)
	s.mux.HandleFunc("GET /v1/meal-plans/status", planHandler.HandleStatus)
	s.mux.HandleFunc("DELETE /v1/meal-plans/current", planHandler.HandleDelete)

	// Chat
	chatService := chat.NewService(
		s.storage.Chat(),
		targetsService,
		s.provider,
		chat.NewContextBuilder(s.config.PlanLocality),
		s.config.ChatHistoryLimit,
	)
	chatHandler := chat.NewHandler(chatService)
	s.mux.HandleFunc("GET /v1/chat/messages", chatHandler.HandleListMessages)
	s.mux.HandleFunc("POST /v1/chat/messages", chatHandler.HandleSendMessage)
	s.mux.HandleFunc("DELETE /v1/chat/messages", chatHandler.HandleReset)

	// Plan exports
	reportsService := reports.NewService(s.storage.Reports(), generator, profileService, s.blobStore, reports.Options{
		PresignTTL:      s.config.Blob.S3.PresignTTLSeconds,
		PublicBaseURL:   s.config.Blob.S3.PublicBaseURL,
		PreferPublicURL: s.config.Blob.S3.PreferPublicURL,
	})
	reportsHandler := reports.NewHandlers(reportsService)
	s.mux.HandleFunc("POST /v1/reports", reportsHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/reports", reportsHandler.HandleList)
	s.mux.HandleFunc("GET /v1/reports/{id}/download", reportsHandler.HandleDownload)
	s.mux.HandleFunc("DELETE /v1/reports/{id}", reportsHandler.HandleDelete)

	return nil
}

// Handler returns the mux wrapped in the middleware chain
// (outermost first): CORS → Rate Limit → Access Log → Auth → Router.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	if s.authMiddleware != nil {
		handler = s.authMiddleware.Wrap(handler)
	}
	handler = AccessLogMiddleware(handler)
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

// handleHealthz возвращает статус сервера
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := "ok"
	code := http.StatusOK
	if err := s.storage.Ping(r.Context()); err != nil {
		log.Warn().Err(err).Msg("healthz: storage ping failed")
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
	})
}

// Run запускает HTTP сервер и блокируется до отмены ctx, затем
// корректно завершает обработку запросов.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close закрывает storage и освобождает ресурсы
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
