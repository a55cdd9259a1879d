package handlers

import (
	"strings"

	"github.com/amaumene/festplan/internal/controllers"
	"github.com/amaumene/festplan/internal/services/festival"
	"github.com/gofiber/fiber/v2"
)

// FestivalHandler exposes the page extractor
type FestivalHandler struct {
	parser controllers.PageParser
}

// NewFestivalHandler creates a new festival handler
func NewFestivalHandler(parser controllers.PageParser) *FestivalHandler {
	return &FestivalHandler{parser: parser}
}

type parseRequest struct {
	URL string `json:"url"`
}

// Parse fetches a festival page and returns what was extracted
func (h *FestivalHandler) Parse(c *fiber.Ctx) error {
	var req parseRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	pageURL := strings.TrimSpace(req.URL)
	if err := festival.ValidateURL(pageURL); err != nil {
		return err
	}

	result, err := h.parser.Parse(c.UserContext(), pageURL)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
