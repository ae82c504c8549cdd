package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/agentmesh/commandcenter/internal/config"
	"github.com/agentmesh/commandcenter/internal/core/ports"
	"github.com/agentmesh/commandcenter/internal/core/services"
	"github.com/agentmesh/commandcenter/internal/infrastructure/db"
	"github.com/agentmesh/commandcenter/internal/infrastructure/logger"
	"github.com/agentmesh/commandcenter/internal/infrastructure/stream"
	transporthttp "github.com/agentmesh/commandcenter/internal/transport/http"
	httpmw "github.com/agentmesh/commandcenter/internal/transport/http/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Consume the event stream and serve the board API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath(*configPath))
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	log, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		database *gorm.DB
		journal  ports.RejectionRepository
		recorder *services.RejectionRecorder
		pruner   *services.JournalPruner
	)
	if cfg.Journal.Enabled {
		database, err = db.NewPostgresConnection(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("database connection established")

		if err := db.RunMigrations(database); err != nil {
			_ = db.Close(database)
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database migrations completed")

		journal = db.NewRejectionRepository(database, log.Named("journal"))
		recorder = services.NewRejectionRecorder(journal, cfg.Journal.BufferSize, log.Named("journal"))
		pruner = services.NewJournalPruner(journal, cfg.Journal.Retention, cfg.Journal.PruneInterval, log.Named("journal"))
	}

	stateCfg := services.BoardStateConfig{Source: cfg.Stream.Source, Logger: log.Named("board")}
	if recorder != nil {
		stateCfg.Journal = recorder
	}
	state := services.NewBoardState(stateCfg)

	source, err := stream.NewSource(cfg, log)
	if err != nil {
		_ = db.Close(database)
		return err
	}
	supervisor := services.NewSupervisor(services.SupervisorConfig{
		Source:  source,
		Handler: state,
		Policy: services.ReconnectPolicy{
			Enabled:        cfg.Stream.Reconnect.Enabled,
			InitialBackoff: cfg.Stream.Reconnect.InitialBackoff,
			MaxBackoff:     cfg.Stream.Reconnect.MaxBackoff,
		},
		Logger: log.Named("supervisor"),
	})

	app := newApp(cfg, log)
	transporthttp.SetupRoutes(app, transporthttp.RouterConfig{
		View:    state,
		Journal: journal,
		Logger:  log.Named("http"),
		Config:  cfg,
	})

	var wg sync.WaitGroup
	if recorder != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recorder.Run(ctx)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			pruner.Run(ctx)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := supervisor.Run(ctx); err != nil {
			// The API keeps serving the (empty, disconnected) board.
			log.Errorw("stream_unavailable", "source", source.Name(), "error", err)
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- app.Listen(cfg.Server.Address())
	}()
	log.Infow("server_started", "addr", cfg.Server.Address(), "source", source.Name())

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Errorw("server_failed", "error", err)
		}
		stop()
	}

	gracefulShutdown(app, database, log, &wg)
	return nil
}

func newApp(cfg *config.Config, log *logger.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		ErrorHandler:          globalErrorHandler(log),
		DisableStartupMessage: true,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	allowedOrigins := "http://localhost:5173"
	if len(cfg.Auth.AllowedOrigins) > 0 {
		allowedOrigins = strings.Join(cfg.Auth.AllowedOrigins, ",")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Api-Token, " + cfg.Features.RequestIDHeader,
		AllowMethods: "GET, HEAD, OPTIONS",
	}))

	app.Use(httpmw.RequestID(cfg.Features.RequestIDHeader))
	if cfg.Features.EnableRequestLogging {
		app.Use(httpmw.AccessLog(log.Named("http")))
	}
	return app
}

func globalErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}

		// Expected client errors stay at warn.
		if code < fiber.StatusInternalServerError {
			log.Warnw("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", code,
				"error", err.Error(),
				"request_id", httpmw.GetRequestID(c),
			)
		} else {
			log.Errorw("request error",
				"method", c.Method(),
				"path", c.Path(),
				"status", code,
				"error", err.Error(),
				"request_id", httpmw.GetRequestID(c),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}

// gracefulShutdown runs once the serve context is done: it stops the listener,
// waits for the supervisor and journal recorder to finish, then closes the
// database.
func gracefulShutdown(app *fiber.App, database *gorm.DB, log *logger.Logger, workers *sync.WaitGroup) {
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
	}

	done := make(chan struct{})
	go func() {
		workers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warn("stream workers did not stop before the shutdown deadline")
	}

	if err := db.Close(database); err != nil {
		log.Errorf("failed to close database connection: %v", err)
	}

	log.Info("server exited gracefully")
}
