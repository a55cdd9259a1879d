package api

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/festplan/internal/api/handlers"
	"github.com/amaumene/festplan/internal/api/middleware"
	"github.com/amaumene/festplan/internal/config"
	"github.com/amaumene/festplan/internal/controllers"
	"github.com/amaumene/festplan/internal/share"
	"github.com/amaumene/festplan/internal/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server represents the HTTP server
type Server struct {
	app     *fiber.App
	cfg     *config.Config
	planner *controllers.Planner
	parser  controllers.PageParser
	remote  controllers.RemoteDatabase
	shares  *share.Service
	venues  *utils.Venues
	logger  *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(
	cfg *config.Config,
	planner *controllers.Planner,
	parser controllers.PageParser,
	remote controllers.RemoteDatabase,
	shares *share.Service,
	venues *utils.Venues,
	logger *logrus.Logger,
) *Server {
	s := &Server{
		cfg:     cfg,
		planner: planner,
		parser:  parser,
		remote:  remote,
		shares:  shares,
		venues:  venues,
		logger:  logger,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "festplan",
		DisableStartupMessage: true,
		ErrorHandler:          handlers.ErrorHandler(logger),
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           60 * time.Second,
	})
	s.app.Use(middleware.Logging(logger))
	s.setupRoutes()

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health check and status
	s.app.Get("/health", handlers.NewHealthHandler(s.logger).Get)
	s.app.Get("/status", handlers.NewStatusHandler(s.planner, s.shares, s.logger).Get)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := s.app.Group("/api")

	// Festival pages
	api.Post("/festival/parse", handlers.NewFestivalHandler(s.parser).Parse)

	// Notion proxy
	if s.remote != nil {
		notionHandler := handlers.NewNotionHandler(s.remote, s.logger)
		api.Post("/notion/query", notionHandler.Query)
		api.Post("/notion/test", notionHandler.Test)
		api.Post("/notion/create", notionHandler.Create)
		api.Post("/notion/update", notionHandler.Update)
		api.Post("/notion/delete", notionHandler.Delete)
	}

	// Sharing; the static routes go before /share/:id
	shareHandler := handlers.NewShareHandler(s.shares, s.planner, s.venues, s.cfg, s.logger)
	api.Get("/share/link", shareHandler.Link)
	api.Post("/share/decode", shareHandler.Decode)
	if s.shares != nil {
		api.Post("/share", shareHandler.Put)
		api.Get("/share/:id", shareHandler.Get)
		api.Get("/share/:id/calendar.ics", shareHandler.Calendar)
		api.Get("/share/:id/days/:date", shareHandler.Day)
	}

	// Own schedule
	filmsHandler := handlers.NewFilmsHandler(s.planner)
	api.Get("/films", filmsHandler.List)
	api.Post("/films", filmsHandler.Add)
	api.Post("/films/import", filmsHandler.Import)
	api.Post("/films/refresh", filmsHandler.Refresh)
	api.Delete("/films/:id", filmsHandler.Delete)
	api.Post("/films/:id/status", filmsHandler.Status)
	api.Post("/films/:id/screening", filmsHandler.Switch)
	api.Post("/films/:id/schedule", filmsHandler.Schedule)
	api.Post("/films/:id/unschedule", filmsHandler.Unschedule)
	api.Get("/favorites", filmsHandler.Favorites)
	api.Get("/days/:date", filmsHandler.Day)

	prefsHandler := handlers.NewPreferencesHandler(s.planner)
	api.Get("/preferences", prefsHandler.Get)
	api.Put("/preferences", prefsHandler.Put)
}

// App exposes the fiber application, mostly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := ":" + s.cfg.ServerPort
	s.logger.WithField("port", addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.app.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(shutdownCtx)
}
