package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/markdave123-py/counsel/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/counsel/internal/api/middlewares"
	"github.com/markdave123-py/counsel/internal/auth"
	"github.com/markdave123-py/counsel/internal/core/llm"
	"github.com/markdave123-py/counsel/internal/models"
	"github.com/markdave123-py/counsel/internal/services"
)

// RouterDeps is everything the HTTP layer needs.
type RouterDeps struct {
	Version        string
	CORSOrigins    []string
	MaxUploadBytes int64
	RequestTimeout time.Duration

	Tokens   *auth.TokenService
	Accounts appMiddleware.UserLookup
	Catalog  *llm.Catalog
	Users    *services.UserService
	Chat     *services.ChatService
	Docs     *services.DocumentService
	Admin    *services.AdminService
	Log      *zap.SugaredLogger
}

// NewRouter builds and wires all routes.
func NewRouter(d RouterDeps) http.Handler {
	authHandler := handlers.NewAuthHandler(d.Users, d.Log)
	userHandler := handlers.NewUserHandler(d.Users, d.Log)
	chatHandler := handlers.NewChatHandler(d.Chat, d.Log)
	docHandler := handlers.NewDocumentHandler(d.Docs, d.MaxUploadBytes, d.Log)
	adminHandler := handlers.NewAdminHandler(d.Admin, d.Log)
	metaHandler := handlers.NewMetaHandler(d.Version, d.Catalog)

	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appMiddleware.RequestLogger(d.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Get("/health", metaHandler.Health)
		api.Get("/models", metaHandler.Models)
		api.Post("/auth/register", authHandler.Register)
		api.Post("/auth/login", authHandler.Login)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware(d.Tokens, d.Accounts, d.Log))

			protected.Get("/auth/me", authHandler.Me)
			protected.Get("/auth/verify", authHandler.Me)

			protected.Get("/users/profile", userHandler.Profile)
			protected.Get("/users/stats", userHandler.Stats)

			protected.Route("/chat", func(chat chi.Router) {
				chat.Post("/query", chatHandler.Query)
				chat.Get("/models", chatHandler.Models)
				chat.Post("/sessions", chatHandler.CreateSession)
				chat.Get("/sessions", chatHandler.ListSessions)
				chat.Delete("/sessions/{id}", chatHandler.ArchiveSession)
				chat.Get("/sessions/{id}/messages", chatHandler.ListMessages)
				chat.Post("/sessions/{id}/messages", chatHandler.PostMessage)
			})

			protected.Route("/documents", func(docs chi.Router) {
				docs.Get("/", docHandler.List)
				docs.Post("/upload", docHandler.Upload)
				docs.Get("/{id}", docHandler.Get)
				docs.Get("/{id}/download", docHandler.Download)
				docs.Delete("/{id}", docHandler.Delete)
			})

			protected.Route("/admin", func(admin chi.Router) {
				admin.Use(appMiddleware.RequireRole(models.RoleAdmin))
				admin.Get("/stats/platform", adminHandler.PlatformStats)
				admin.Get("/stats", adminHandler.PlatformStats)
				admin.Get("/users", adminHandler.ListUsers)
			})
		})
	})

	return r
}

// Server wraps the HTTP server instance.
type Server struct {
	httpServer *http.Server
	log        *zap.SugaredLogger
}

func NewServer(port string, handler http.Handler, log *zap.SugaredLogger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Infow("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
