package handlers

import (
	"errors"

	"github.com/agentmesh/commandcenter/internal/core/ports"
	"github.com/agentmesh/commandcenter/internal/core/services"
	"github.com/agentmesh/commandcenter/internal/infrastructure/logger"
	"github.com/agentmesh/commandcenter/internal/transport/http/dto"
	"github.com/gofiber/fiber/v2"
)

type BoardHandler struct {
	view   ports.BoardView
	logger *logger.Logger
}

func NewBoardHandler(view ports.BoardView, logger *logger.Logger) *BoardHandler {
	return &BoardHandler{view: view, logger: logger}
}

func (h *BoardHandler) GetBoard(c *fiber.Ctx) error {
	return c.JSON(h.view.Snapshot())
}

func (h *BoardHandler) GetColumns(c *fiber.Ctx) error {
	return c.JSON(h.view.Snapshot().Columns)
}

func (h *BoardHandler) GetTask(c *fiber.Ctx) error {
	id := c.Params("id")
	task, err := h.view.Task(id)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			h.logger.Debugw("board_task_not_found", "id", id)
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: "task not found",
			})
		}
		h.logger.Errorw("board_task_get_failed", "id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}
	return c.JSON(task)
}

func (h *BoardHandler) GetWorkers(c *fiber.Ctx) error {
	return c.JSON(dto.WorkersToResponse(h.view.Snapshot().Health))
}

func (h *BoardHandler) GetStatus(c *fiber.Ctx) error {
	snap := h.view.Snapshot()
	return c.JSON(dto.StatusResponse{
		Connected:   snap.Connected,
		State:       snap.State,
		Version:     snap.Version,
		UpdatedAt:   snap.UpdatedAt,
		Subscribers: h.view.SubscriberCount(),
		Stats:       h.view.Stats(),
	})
}
