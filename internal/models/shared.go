package models

import (
	"fmt"
	"time"
)

// SharedSchedule is a schedule published under a share token
type SharedSchedule struct {
	ID        string    `json:"shareId,omitempty"`
	OwnerName string    `json:"userName"`
	Films     []*Film   `json:"films"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks the fields required to publish a schedule
func (s *SharedSchedule) Validate() error {
	if s.OwnerName == "" {
		return fmt.Errorf("%w: userName is required", ErrValidation)
	}
	for _, f := range s.Films {
		if f == nil {
			return fmt.Errorf("%w: films must not contain null entries", ErrValidation)
		}
	}
	return nil
}

// Preferences holds the small scalar settings kept next to the film list
type Preferences struct {
	ID               string    `json:"-"`
	ViewAnchor       time.Time `json:"currentStartDate"`
	DisplayName      string    `json:"userName"`
	NotionAPIKey     string    `json:"notionApiKey"`
	NotionDatabaseID string    `json:"notionDatabaseId"`
	BackendURL       string    `json:"backendUrl"`
	MyShareID        string    `json:"myShareId"`
}

// Validate enforces that remote credentials are given together or not at all
func (p *Preferences) Validate() error {
	if (p.NotionAPIKey == "") != (p.NotionDatabaseID == "") {
		return fmt.Errorf("%w: notion API key and database ID must both be set or both be empty", ErrValidation)
	}
	return nil
}

// RemoteSyncEnabled reports whether films are mirrored to the remote database
func (p *Preferences) RemoteSyncEnabled() bool {
	return p.NotionAPIKey != "" && p.NotionDatabaseID != ""
}
