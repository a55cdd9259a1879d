package handlers

import (
	"github.com/amaumene/festplan/internal/controllers"
	"github.com/amaumene/festplan/internal/models"
	"github.com/amaumene/festplan/internal/schedule"
	"github.com/gofiber/fiber/v2"
)

// FilmsHandler serves the own schedule
type FilmsHandler struct {
	planner *controllers.Planner
}

// NewFilmsHandler creates a new films handler
func NewFilmsHandler(planner *controllers.Planner) *FilmsHandler {
	return &FilmsHandler{planner: planner}
}

// DayResponse is one laid out festival day
type DayResponse struct {
	Date     string          `json:"date"`
	Owner    string          `json:"owner,omitempty"`
	ReadOnly bool            `json:"readOnly"`
	Slots    []schedule.Slot `json:"slots"`
	Overlaps []*models.Film  `json:"overlaps,omitempty"`
}

type statusRequest struct {
	Status models.StatusType `json:"status"`
}

type screeningRequest struct {
	Index *int `json:"index"`
}

func (r screeningRequest) index() (int, error) {
	if r.Index == nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "screening index is required")
	}
	return *r.Index, nil
}

func filmID(c *fiber.Ctx) models.FilmID {
	return models.FilmID(c.Params("id"))
}

// List returns every film
func (h *FilmsHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.planner.Films())
}

// Add adds a film entered by hand
func (h *FilmsHandler) Add(c *fiber.Ctx) error {
	var entry controllers.ManualEntry
	if err := bind(c, &entry); err != nil {
		return err
	}
	film, err := h.planner.AddManual(c.UserContext(), entry)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(film)
}

// Import adds a film from a festival page
func (h *FilmsHandler) Import(c *fiber.Ctx) error {
	var req controllers.ImportRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	film, err := h.planner.Import(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(film)
}

// Delete removes a film
func (h *FilmsHandler) Delete(c *fiber.Ctx) error {
	if err := h.planner.Delete(c.UserContext(), filmID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Status toggles one status flag
func (h *FilmsHandler) Status(c *fiber.Ctx) error {
	var req statusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	film, err := h.planner.ToggleStatus(c.UserContext(), filmID(c), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(film)
}

// Switch moves a scheduled film to another screening
func (h *FilmsHandler) Switch(c *fiber.Ctx) error {
	var req screeningRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	index, err := req.index()
	if err != nil {
		return err
	}
	film, err := h.planner.SwitchScreening(c.UserContext(), filmID(c), index)
	if err != nil {
		return err
	}
	return c.JSON(film)
}

// Schedule places a favorite at one of its screenings
func (h *FilmsHandler) Schedule(c *fiber.Ctx) error {
	var req screeningRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	index, err := req.index()
	if err != nil {
		return err
	}
	film, err := h.planner.ScheduleFromFavorites(c.UserContext(), filmID(c), index)
	if err != nil {
		return err
	}
	return c.JSON(film)
}

// Unschedule turns a scheduled film back into a favorite
func (h *FilmsHandler) Unschedule(c *fiber.Ctx) error {
	film, err := h.planner.Unschedule(c.UserContext(), filmID(c))
	if err != nil {
		return err
	}
	return c.JSON(film)
}

// Refresh re-checks the availability of scheduled films
func (h *FilmsHandler) Refresh(c *fiber.Ctx) error {
	report, err := h.planner.RefreshAvailability(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(report)
}

// Favorites lists favorites that have no time yet
func (h *FilmsHandler) Favorites(c *fiber.Ctx) error {
	return c.JSON(h.planner.Favorites())
}

// Day lays out one festival day. With ?film=<id> the films overlapping that
// film are listed too.
func (h *FilmsHandler) Day(c *fiber.Ctx) error {
	date, err := dateParam(c)
	if err != nil {
		return err
	}
	day, _ := models.ParseLocalDate(date)
	response := DayResponse{
		Date:     date,
		ReadOnly: h.planner.ReadOnly(),
		Slots:    h.planner.Day(day),
	}
	if id := c.Query("film"); id != "" {
		overlaps, err := h.planner.Overlaps(models.FilmID(id))
		if err != nil {
			return err
		}
		response.Overlaps = overlaps
	}
	return c.JSON(response)
}
