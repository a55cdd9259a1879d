package handlers

import (
	"errors"
	"fmt"

	"github.com/amaumene/festplan/internal/models"
	"github.com/amaumene/festplan/internal/services/notion"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusFor maps an error to an HTTP status code
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrDecode):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrReadOnly):
		return fiber.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrFetch):
		return fiber.StatusBadGateway
	case errors.Is(err, models.ErrRemoteSync):
		if code := notion.StatusCode(err); code >= 400 && code < 600 {
			return code
		}
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler renders handler errors as JSON
func ErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := StatusFor(err)
		message := err.Error()
		switch {
		case errors.Is(err, models.ErrDecode):
			message = "Invalid share link"
		case status == fiber.StatusInternalServerError:
			logger.WithError(err).WithField("path", c.Path()).Error("Request failed")
			message = "Internal server error"
		}
		return c.Status(status).JSON(ErrorResponse{Error: message})
	}
}

// bind parses the request body into v
func bind(c *fiber.Ctx, v interface{}) error {
	if err := c.BodyParser(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", models.ErrValidation, err)
	}
	return nil
}

// dateParam parses a YYYY-MM-DD route parameter
func dateParam(c *fiber.Ctx) (string, error) {
	date := c.Params("date")
	if _, err := models.ParseLocalDate(date); err != nil {
		return "", fmt.Errorf("%w: invalid date %q", models.ErrValidation, date)
	}
	return date, nil
}
