package handlers

import (
	"github.com/amaumene/festplan/internal/controllers"
	"github.com/amaumene/festplan/internal/share"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// StatusHandler handles status requests
type StatusHandler struct {
	planner *controllers.Planner
	shares  *share.Service
	logger  *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(planner *controllers.Planner, shares *share.Service, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		planner: planner,
		shares:  shares,
		logger:  logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	Films    map[string]int           `json:"films"`
	Sync     controllers.SyncSnapshot `json:"sync"`
	Shares   int                      `json:"shares"`
	ReadOnly bool                     `json:"readOnly"`
}

// Get handles the status endpoint
func (h *StatusHandler) Get(c *fiber.Ctx) error {
	response := StatusResponse{
		Films:    h.planner.Counts(),
		Sync:     h.planner.SyncStatus(),
		ReadOnly: h.planner.ReadOnly(),
		Shares:   -1,
	}

	if h.shares != nil {
		count, err := h.shares.Count(c.UserContext())
		if err != nil {
			h.logger.WithError(err).Warn("Failed to count shares")
		} else {
			response.Shares = count
		}
	}

	return c.JSON(response)
}
