package http

import (
	"github.com/agentmesh/commandcenter/internal/config"
	"github.com/agentmesh/commandcenter/internal/core/ports"
	"github.com/agentmesh/commandcenter/internal/infrastructure/db"
	"github.com/agentmesh/commandcenter/internal/infrastructure/logger"
	"github.com/agentmesh/commandcenter/internal/transport/http/handlers"
	httpmw "github.com/agentmesh/commandcenter/internal/transport/http/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type RouterConfig struct {
	View ports.BoardView
	// Journal backs the rejections endpoints. Nil means the journal is disabled.
	Journal ports.RejectionRepository
	Logger  *logger.Logger
	Config  *config.Config
}

func SetupRoutes(app *fiber.App, cfg RouterConfig) {
	journal := cfg.Journal
	if journal == nil {
		journal = db.NewRejectionRepoStub(cfg.Logger)
	}

	boardHandler := handlers.NewBoardHandler(cfg.View, cfg.Logger)
	rejectionHandler := handlers.NewRejectionHandler(journal, cfg.Config.Journal.ListLimit, cfg.Logger)
	streamHandler := handlers.NewStreamHandler(cfg.View, cfg.Logger)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Live board push
	app.Use("/ws", httpmw.APIAuth(cfg.Config), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws/board", websocket.New(streamHandler.Handle))

	// API v1 routes
	api := app.Group("/api/v1", httpmw.APIAuth(cfg.Config))

	api.Get("/board", boardHandler.GetBoard)
	api.Get("/board/columns", boardHandler.GetColumns)
	api.Get("/tasks/:id", boardHandler.GetTask)
	api.Get("/workers", boardHandler.GetWorkers)
	api.Get("/status", boardHandler.GetStatus)

	rejections := api.Group("/rejections")
	rejections.Get("/", rejectionHandler.GetRejections)
	rejections.Get("/summary", rejectionHandler.GetSummary)
}
