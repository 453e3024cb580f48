// Package server sets up the HTTP router and runs the local JSON API.
//
// WHY SEPARATE FROM THE CLI?
// The serve command only builds an app.App and calls Start. Keeping the
// routes here lets tests drive the whole API through httptest without a
// process or a port.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/maxsports/internal/app"
	"github.com/sakif/maxsports/internal/auth"
	"github.com/sakif/maxsports/internal/handler"
	"github.com/sakif/maxsports/internal/middleware"
)

// shutdownTimeout bounds how long in-flight requests get once the context
// passed to Start is cancelled.
const shutdownTimeout = 30 * time.Second

// Server is the HTTP front of an App. It does not own the App: the caller
// closes it after Start returns.
type Server struct {
	router *chi.Mux
	app    *app.App
	logger *slog.Logger
}

// New builds the router for a.
func New(a *app.App) *Server {
	s := &Server{
		router: chi.NewRouter(),
		app:    a,
		logger: a.Logger,
	}
	s.setupRoutes()
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz
//	POST   /api/auth/register | login | logout | forgot-password
//	GET    /api/auth/me                     (auth)
//	GET    /api/exercises                   (optional auth)
//	GET    /api/favorites                   (auth, and everything below)
//	POST   /api/favorites
//	DELETE /api/favorites?confirm=true
//	POST   /api/favorites/toggle
//	GET    /api/favorites/stats
//	GET    /api/favorites/export
//	GET    /api/favorites/{id}
//	DELETE /api/favorites/{id}
//	PUT    /api/profile | profile/preferences | profile/password
//	GET    /api/profile/avatar
//	PUT    /api/profile/avatar
//	DELETE /api/profile/avatar
//	DELETE /api/profile
//
// MIDDLEWARE ORDER MATTERS:
// RequestID runs first so the logger can print the id and EchoRequestID can
// return it in X-Request-Id; Recoverer sits
// inside the logger so a panic is logged as the 500 it becomes.
func (s *Server) setupRoutes() {
	cfg := s.app.Config

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(middleware.EchoRequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	requireAuth := auth.RequireAuth(s.app.Tokens, s.app.Sessions)
	optionalAuth := auth.OptionalAuth(s.app.Tokens, s.app.Sessions)

	authHandler := handler.NewAuthHandler(s.app.Auth, s.app.Tokens.TTL(), cfg.Server.SecureCookies, s.logger)
	catalogHandler := handler.NewCatalogHandler(s.app.Catalog, s.logger)
	favoritesHandler := handler.NewFavoritesHandler(s.app.Favorites, s.app.Catalog, s.logger)
	profileHandler := handler.NewProfileHandler(s.app.Profiles, s.app.Users, cfg.Server.SecureCookies, s.logger)

	s.router.Get("/healthz", handler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.Post("/forgot-password", authHandler.HandleForgotPassword)
			r.With(requireAuth).Get("/me", authHandler.HandleMe)
		})

		r.With(optionalAuth).Get("/exercises", catalogHandler.HandleList)

		r.Route("/favorites", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", favoritesHandler.HandleList)
			r.Post("/", favoritesHandler.HandleAdd)
			r.Delete("/", favoritesHandler.HandleClear)
			r.Post("/toggle", favoritesHandler.HandleToggle)
			r.Get("/stats", favoritesHandler.HandleStats)
			r.Get("/export", favoritesHandler.HandleExport)
			r.Get("/{id}", favoritesHandler.HandleGet)
			r.Delete("/{id}", favoritesHandler.HandleRemove)
		})

		r.Route("/profile", func(r chi.Router) {
			r.Use(requireAuth)
			r.Put("/", profileHandler.HandleUpdate)
			r.Delete("/", profileHandler.HandleDelete)
			r.Put("/preferences", profileHandler.HandlePreferences)
			r.Put("/password", profileHandler.HandlePassword)
			r.Get("/avatar", profileHandler.HandleGetAvatar)
			r.Put("/avatar", profileHandler.HandleSetAvatar)
			r.Delete("/avatar", profileHandler.HandleRemoveAvatar)
		})
	})
}

// Start listens on the configured port and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.app.Config.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
//
// GRACEFUL SHUTDOWN:
// One goroutine serves, the other waits for ctx and then calls Shutdown,
// which stops accepting connections and waits up to shutdownTimeout for
// in-flight requests. errgroup returns the first real error of the two.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server starting",
			slog.String("addr", ln.Addr().String()),
			slog.String("database", s.app.Config.DBFile()),
			slog.Bool("offline", s.app.Config.Catalog.Offline),
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	})

	return g.Wait()
}
