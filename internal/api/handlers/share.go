package handlers

import (
	"fmt"
	"strings"

	"github.com/amaumene/festplan/internal/config"
	"github.com/amaumene/festplan/internal/controllers"
	"github.com/amaumene/festplan/internal/models"
	"github.com/amaumene/festplan/internal/share"
	"github.com/amaumene/festplan/internal/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ShareHandler publishes and reads shared schedules
type ShareHandler struct {
	shares  *share.Service
	planner *controllers.Planner
	venues  *utils.Venues
	cfg     *config.Config
	logger  *logrus.Logger
}

// NewShareHandler creates a new share handler
func NewShareHandler(shares *share.Service, planner *controllers.Planner, venues *utils.Venues, cfg *config.Config, logger *logrus.Logger) *ShareHandler {
	return &ShareHandler{
		shares:  shares,
		planner: planner,
		venues:  venues,
		cfg:     cfg,
		logger:  logger,
	}
}

type putShareRequest struct {
	ShareID   string         `json:"shareId"`
	OwnerName string         `json:"userName"`
	Films     []*models.Film `json:"films"`
}

type putShareResponse struct {
	ShareID string `json:"shareId"`
	URL     string `json:"url"`
}

type decodeRequest struct {
	Data string `json:"data"`
}

// Put stores a schedule under a new or existing share id
func (h *ShareHandler) Put(c *fiber.Ctx) error {
	var req putShareRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	stored, err := h.shares.Put(c.UserContext(), req.ShareID, &models.SharedSchedule{
		OwnerName: strings.TrimSpace(req.OwnerName),
		Films:     req.Films,
	})
	if err != nil {
		return err
	}
	return c.JSON(putShareResponse{
		ShareID: stored.ID,
		URL:     h.cfg.PublicURL + "/?shareId=" + stored.ID,
	})
}

// Get returns the latest version of a shared schedule
func (h *ShareHandler) Get(c *fiber.Ctx) error {
	shared, err := h.shares.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(shared)
}

// Calendar exports a shared schedule as iCalendar
func (h *ShareHandler) Calendar(c *fiber.Ctx) error {
	shared, err := h.shares.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.ics"`, shared.ID))
	return c.SendString(share.CalendarICS(shared, h.cfg.FestivalName))
}

// Day lays out one day of a shared schedule
func (h *ShareHandler) Day(c *fiber.Ctx) error {
	date, err := dateParam(c)
	if err != nil {
		return err
	}
	shared, err := h.shares.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	planner, err := controllers.NewSharedPlanner(shared, h.venues, h.cfg, h.logger)
	if err != nil {
		return err
	}
	day, _ := models.ParseLocalDate(date)
	return c.JSON(DayResponse{
		Date:     date,
		Owner:    planner.Owner(),
		ReadOnly: true,
		Slots:    planner.Day(day),
	})
}

// Decode reads a static share link
func (h *ShareHandler) Decode(c *fiber.Ctx) error {
	var req decodeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	shared, err := share.DecodeCompact(req.Data)
	if err != nil {
		return err
	}
	return c.JSON(shared)
}

// Link shares the own schedule and returns both links
func (h *ShareHandler) Link(c *fiber.Ctx) error {
	links, err := h.planner.Share(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(links)
}
