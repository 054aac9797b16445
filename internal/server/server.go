// Package server is the composition root: it opens the database, builds
// services and handlers, mounts the routes, and runs the HTTP server with
// graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/game-idea-generator/internal/ai"
	"github.com/sakif/game-idea-generator/internal/auth"
	"github.com/sakif/game-idea-generator/internal/config"
	"github.com/sakif/game-idea-generator/internal/handler"
	"github.com/sakif/game-idea-generator/internal/middleware"
	sqliteRepo "github.com/sakif/game-idea-generator/internal/repository/sqlite"
	"github.com/sakif/game-idea-generator/internal/service"
	"github.com/sakif/game-idea-generator/internal/storage"
)

// Server owns the router and the database connection.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and wires every dependency. The caller must call
// Start (which closes the database on return) or Close.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes mounts:
//
//	GET    /healthz
//	POST   /auth/register, /auth/login, /auth/logout
//	GET    /auth/github/login, /auth/github/callback   (when configured)
//	GET    /api/me, /api/me/credits                    (auth required)
//	GET    /api/games, /api/games/count, /api/games/{id}, /api/games/{id}/image
//	POST   /api/games, /api/games/generate             (auth required)
//	DELETE /api/games/{id}                             (auth required)
//	PUT    /api/games/{id}/rating                      (auth required)
//	GET    /api/languages
//	POST   /api/languages                              (auth required)
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	var covers service.CoverStore
	if s.config.S3Enabled() {
		uploader, err := storage.NewUploader(storage.Config{
			Endpoint:      s.config.S3Endpoint,
			Region:        s.config.S3Region,
			AccessKey:     s.config.S3AccessKey,
			SecretKey:     s.config.S3SecretKey,
			Bucket:        s.config.S3Bucket,
			PublicBaseURL: s.config.S3PublicBaseURL,
			UsePathStyle:  s.config.S3UsePathStyle,
			Prefix:        s.config.S3Prefix,
		})
		if err != nil {
			return fmt.Errorf("creating cover uploader: %w", err)
		}
		covers = uploader
		s.logger.Info("cover mirroring enabled", slog.String("bucket", s.config.S3Bucket))
	}

	aiClient := ai.NewClient(ai.Config{
		ChatURL:     s.config.ChatURL,
		ChatAPIKey:  s.config.ChatAPIKey,
		ChatModel:   s.config.ChatModel,
		ImageURL:    s.config.ImageURL,
		ImageAPIKey: s.config.ImageAPIKey,
		Timeout:     s.config.AITimeout,
	}, s.logger)

	ledger := service.NewCreditLedger(s.db, s.logger)
	gameService := service.NewGameService(s.db, ledger, aiClient, covers, s.config.GenerationTimeout, s.logger)
	ratingService := service.NewRatingService(s.db, s.db, s.logger)
	languageService := service.NewLanguageService(s.db, s.logger)
	authService := service.NewAuthService(s.db, tokens, auth.NewPasswordService(), s.config.DefaultCredits, s.logger)

	var github handler.OAuthProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	}

	gameHandler := handler.NewGameHandler(gameService, ratingService, s.logger)
	languageHandler := handler.NewLanguageHandler(languageService, s.logger)
	authHandler := handler.NewAuthHandler(authService, ledger, github, tokens.TTL(), s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/healthz", handler.Health(s.db, s.logger))

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))
			r.Use(middleware.TrackUser)

			r.Get("/games", gameHandler.HandleList)
			r.Get("/games/count", gameHandler.HandleCount)
			r.Get("/games/{id}", gameHandler.HandleGet)
			r.Get("/games/{id}/image", gameHandler.HandleImage)
			r.Get("/languages", languageHandler.HandleList)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Use(middleware.TrackUser)

			r.Get("/me", authHandler.HandleMe)
			r.Get("/me/credits", authHandler.HandleCredits)
			r.Post("/games", gameHandler.HandleCreate)
			r.Post("/games/generate", gameHandler.HandleGenerate)
			r.Delete("/games/{id}", gameHandler.HandleDelete)
			r.Put("/games/{id}/rating", gameHandler.HandleRate)
			r.Post("/languages", languageHandler.HandleRegister)
		})
	})

	return nil
}

// writeTimeout leaves room for a generation request to use its whole AI
// deadline. It applies the same default as the game service.
func writeTimeout(cfg config.Config) time.Duration {
	timeout := cfg.GenerationTimeout
	if timeout <= 0 {
		timeout = service.DefaultGenerationTimeout
	}
	return timeout + 30*time.Second
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests and
// closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout(s.config),
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.Bool("github", s.config.GitHubEnabled()),
			slog.Bool("s3", s.config.S3Enabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
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
