package handlers

import (
	"strconv"

	"github.com/agentmesh/commandcenter/internal/core/ports"
	"github.com/agentmesh/commandcenter/internal/infrastructure/logger"
	"github.com/agentmesh/commandcenter/internal/transport/http/dto"
	"github.com/gofiber/fiber/v2"
)

const maxRejectionLimit = 500

type RejectionHandler struct {
	repo         ports.RejectionRepository
	defaultLimit int
	logger       *logger.Logger
}

func NewRejectionHandler(repo ports.RejectionRepository, defaultLimit int, logger *logger.Logger) *RejectionHandler {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	return &RejectionHandler{repo: repo, defaultLimit: defaultLimit, logger: logger}
}

func (h *RejectionHandler) GetRejections(c *fiber.Ctx) error {
	limit := h.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: "invalid limit",
			})
		}
		limit = min(n, maxRejectionLimit)
	}

	frames, err := h.repo.List(c.UserContext(), limit)
	if err != nil {
		h.logger.Errorw("rejections_list_failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}
	return c.JSON(frames)
}

func (h *RejectionHandler) GetSummary(c *fiber.Ctx) error {
	counts, err := h.repo.CountByReason(c.UserContext())
	if err != nil {
		h.logger.Errorw("rejections_summary_failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return c.JSON(dto.RejectionSummaryResponse{Total: total, ByReason: counts})
}
