// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the "composition root": the one place where the whole dependency
// chain gets assembled —
//
//	sqlite.DB → repositories → services → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces (not *sqlite.DB), handlers get services (not repositories),
// and the access-control policy and highlight renderer are injected into
// the snippet service here, so swapping either means changing one line.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/snippetbin/internal/auth"
	"github.com/sakif/snippetbin/internal/config"
	"github.com/sakif/snippetbin/internal/handler"
	"github.com/sakif/snippetbin/internal/highlight"
	"github.com/sakif/snippetbin/internal/middleware"
	"github.com/sakif/snippetbin/internal/policy"
	sqliteRepo "github.com/sakif/snippetbin/internal/repository/sqlite"
	"github.com/sakif/snippetbin/internal/service"
)

// Server owns the router, the configuration, and the database connection.
// The connection is closed during graceful shutdown so the WAL is flushed
// and the file lock released.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with all dependencies wired.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and the route table.
//
// ROUTE TABLE:
//
//	GET    /snippets                 list (public)
//	POST   /snippets                 create (token required)
//	GET    /snippets/{id}            retrieve (public)
//	PUT    /snippets/{id}            replace (owner only)
//	PATCH  /snippets/{id}            partial update (owner only)
//	DELETE /snippets/{id}            delete (owner only)
//	GET    /snippets/{id}/highlight  rendered HTML (public)
//	GET    /users                    list users (public)
//	GET    /users/{id}               retrieve user (public)
//	POST   /auth/register            create account
//	POST   /auth/login               issue token
//
// AUTH MIDDLEWARE CHOICE PER ROUTE:
// Create uses RequireAuth — an anonymous create is always 401, no policy
// needed. The mutating detail routes use OptionalAuth instead: the request
// reaches the service with or without an identity, and the ownership
// policy decides between 401 (no actor) and 403 (wrong actor) AFTER the
// 404 check, so probing an unknown id never reveals anything.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	renderer := highlight.NewRenderer()
	authz := policy.NewOwnerOnly()

	snippetService := service.NewSnippetService(s.db, renderer, authz, s.logger)
	userService := service.NewUserService(s.db, s.logger)
	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)

	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	authHandler := handler.NewAuthHandler(authService, s.logger)

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	s.router.Route("/snippets", func(r chi.Router) {
		r.Get("/", snippetHandler.HandleList)
		r.With(requireAuth).Post("/", snippetHandler.HandleCreate)
		r.Get("/{id}", snippetHandler.HandleGetByID)
		r.Get("/{id}/highlight", snippetHandler.HandleHighlight)
		r.With(optionalAuth).Put("/{id}", snippetHandler.HandleUpdate)
		r.With(optionalAuth).Patch("/{id}", snippetHandler.HandlePatch)
		r.With(optionalAuth).Delete("/{id}", snippetHandler.HandleDelete)
	})

	s.router.Route("/users", func(r chi.Router) {
		r.Get("/", userHandler.HandleList)
		r.Get("/{id}", userHandler.HandleGetByID)
	})

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
	})

	return nil
}

// Handler exposes the configured router — used by tests to drive the full
// stack through httptest without opening a port.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the server's resources (the database connection).
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds to drain, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("database", s.cfg.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
