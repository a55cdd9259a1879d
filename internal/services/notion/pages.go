package notion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/amaumene/festplan/internal/models"
	"github.com/sirupsen/logrus"
)

var errMissingPage = fmt.Errorf("%w: missing API key or page ID", models.ErrValidation)

// Page is a database row
type Page struct {
	ID         string              `json:"id"`
	Archived   bool                `json:"archived"`
	URL        string              `json:"url,omitempty"`
	Properties map[string]Property `json:"properties"`
}

// Flatten turns the page into a flat property bag keyed by property name,
// with the page id under "id"
func (p *Page) Flatten() map[string]interface{} {
	bag := make(map[string]interface{}, len(p.Properties)+1)
	for name, prop := range p.Properties {
		bag[name] = prop.Value()
	}
	bag["id"] = p.ID
	return bag
}

type queryRequest struct {
	PageSize    int    `json:"page_size"`
	StartCursor string `json:"start_cursor,omitempty"`
}

type queryResponse struct {
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

type parent struct {
	DatabaseID string `json:"database_id"`
}

type createRequest struct {
	Parent     parent              `json:"parent"`
	Properties map[string]Property `json:"properties"`
}

type updateRequest struct {
	Properties map[string]Property `json:"properties,omitempty"`
	Archived   *bool               `json:"archived,omitempty"`
}

// QueryDatabase returns every page of the database, following pagination
func (c *Client) QueryDatabase(ctx context.Context, creds Credentials) ([]Page, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/v1/databases/%s/query", url.PathEscape(creds.DatabaseID))
	var pages []Page
	cursor := ""
	for {
		var resp queryResponse
		req := queryRequest{PageSize: pageSize, StartCursor: cursor}
		if err := c.doRequest(ctx, creds.APIKey, http.MethodPost, path, req, &resp); err != nil {
			return nil, fmt.Errorf("failed to query database: %w", err)
		}
		pages = append(pages, resp.Results...)
		if !resp.HasMore || resp.NextCursor == nil || *resp.NextCursor == "" {
			break
		}
		cursor = *resp.NextCursor
	}

	c.logger.WithFields(logrus.Fields{
		"database": creds.DatabaseID,
		"pages":    len(pages),
	}).Debug("Queried Notion database")

	return pages, nil
}

// TestConnection checks that the key can read the database
func (c *Client) TestConnection(ctx context.Context, creds Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	path := fmt.Sprintf("/v1/databases/%s", url.PathEscape(creds.DatabaseID))
	if err := c.doRequest(ctx, creds.APIKey, http.MethodGet, path, nil, nil); err != nil {
		return fmt.Errorf("failed to reach database: %w", err)
	}
	return nil
}

// CreatePage adds a row to the database
func (c *Client) CreatePage(ctx context.Context, creds Credentials, properties map[string]Property) (*Page, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	req := createRequest{
		Parent:     parent{DatabaseID: creds.DatabaseID},
		Properties: properties,
	}
	var page Page
	if err := c.doRequest(ctx, creds.APIKey, http.MethodPost, "/v1/pages", req, &page); err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return &page, nil
}

// UpdatePage patches the given properties of a page
func (c *Client) UpdatePage(ctx context.Context, apiKey, pageID string, properties map[string]Property) (*Page, error) {
	if apiKey == "" || pageID == "" {
		return nil, errMissingPage
	}
	var page Page
	path := "/v1/pages/" + url.PathEscape(pageID)
	if err := c.doRequest(ctx, apiKey, http.MethodPatch, path, updateRequest{Properties: properties}, &page); err != nil {
		return nil, fmt.Errorf("failed to update page %s: %w", pageID, err)
	}
	return &page, nil
}

// ArchivePage moves a page to the trash. The API has no hard delete.
func (c *Client) ArchivePage(ctx context.Context, apiKey, pageID string) error {
	if apiKey == "" || pageID == "" {
		return errMissingPage
	}
	archived := true
	path := "/v1/pages/" + url.PathEscape(pageID)
	if err := c.doRequest(ctx, apiKey, http.MethodPatch, path, updateRequest{Archived: &archived}, nil); err != nil {
		return fmt.Errorf("failed to archive page %s: %w", pageID, err)
	}
	return nil
}
