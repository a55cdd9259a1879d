package handlers

import (
	"fmt"

	"github.com/amaumene/festplan/internal/controllers"
	"github.com/amaumene/festplan/internal/mapper"
	"github.com/amaumene/festplan/internal/models"
	"github.com/amaumene/festplan/internal/services/notion"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// NotionHandler proxies database calls with caller-supplied credentials
type NotionHandler struct {
	remote controllers.RemoteDatabase
	logger *logrus.Logger
}

// NewNotionHandler creates a new Notion proxy handler
func NewNotionHandler(remote controllers.RemoteDatabase, logger *logrus.Logger) *NotionHandler {
	return &NotionHandler{remote: remote, logger: logger}
}

type notionRequest struct {
	APIKey     string       `json:"apiKey"`
	DatabaseID string       `json:"databaseId"`
	PageID     string       `json:"pageId"`
	Film       *models.Film `json:"film"`
}

func (r notionRequest) credentials() notion.Credentials {
	return notion.Credentials{APIKey: r.APIKey, DatabaseID: r.DatabaseID}
}

func (r notionRequest) properties() (map[string]notion.Property, error) {
	if r.Film == nil {
		return nil, fmt.Errorf("%w: film is required", models.ErrValidation)
	}
	return mapper.FilmToProperties(r.Film)
}

func requirePage(r notionRequest) error {
	if r.APIKey == "" || r.PageID == "" {
		return fmt.Errorf("%w: API key and page ID are required", models.ErrValidation)
	}
	return nil
}

// Query returns every page of the database together with the films mapped
// from them
func (h *NotionHandler) Query(c *fiber.Ctx) error {
	var req notionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	pages, err := h.remote.QueryDatabase(c.UserContext(), req.credentials())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"results": pages,
		"films":   mapper.MapPages(pages, h.logger),
	})
}

// Test checks that the database can be reached
func (h *NotionHandler) Test(c *fiber.Ctx) error {
	var req notionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.remote.TestConnection(c.UserContext(), req.credentials()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// Create adds a page for a film
func (h *NotionHandler) Create(c *fiber.Ctx) error {
	var req notionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	props, err := req.properties()
	if err != nil {
		return err
	}
	page, err := h.remote.CreatePage(c.UserContext(), req.credentials(), props)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// Update overwrites every property of a film's page
func (h *NotionHandler) Update(c *fiber.Ctx) error {
	var req notionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := requirePage(req); err != nil {
		return err
	}
	props, err := req.properties()
	if err != nil {
		return err
	}
	page, err := h.remote.UpdatePage(c.UserContext(), req.APIKey, req.PageID, props)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// Delete archives a page
func (h *NotionHandler) Delete(c *fiber.Ctx) error {
	var req notionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := requirePage(req); err != nil {
		return err
	}
	if err := h.remote.ArchivePage(c.UserContext(), req.APIKey, req.PageID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}
