package handlers

import (
	"github.com/amaumene/festplan/internal/controllers"
	"github.com/amaumene/festplan/internal/models"
	"github.com/gofiber/fiber/v2"
)

// PreferencesHandler reads and stores the user's settings
type PreferencesHandler struct {
	planner *controllers.Planner
}

// NewPreferencesHandler creates a new preferences handler
func NewPreferencesHandler(planner *controllers.Planner) *PreferencesHandler {
	return &PreferencesHandler{planner: planner}
}

// Get returns the stored preferences
func (h *PreferencesHandler) Get(c *fiber.Ctx) error {
	return c.JSON(h.planner.Preferences())
}

// Put validates and stores new preferences
func (h *PreferencesHandler) Put(c *fiber.Ctx) error {
	var prefs models.Preferences
	if err := bind(c, &prefs); err != nil {
		return err
	}
	stored, err := h.planner.UpdatePreferences(prefs)
	if err != nil {
		return err
	}
	return c.JSON(stored)
}
