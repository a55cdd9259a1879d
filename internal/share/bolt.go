package share

import (
	"context"

	"github.com/amaumene/festplan/internal/models"
)

// BoltBackend keeps shares in the local bolthold database
type BoltBackend struct {
	db *models.Database
}

// NewBoltBackend wraps an open database
func NewBoltBackend(db *models.Database) *BoltBackend {
	return &BoltBackend{db: db}
}

// Load reads a share by id
func (b *BoltBackend) Load(_ context.Context, id string) (*models.SharedSchedule, error) {
	return b.db.GetSharedSchedule(id)
}

// Save upserts a share
func (b *BoltBackend) Save(_ context.Context, schedule *models.SharedSchedule) error {
	return b.db.SaveSharedSchedule(schedule)
}

// Count returns the number of shares
func (b *BoltBackend) Count(_ context.Context) (int, error) {
	return b.db.CountSharedSchedules()
}

// Close is a no-op; the database is owned by the caller
func (b *BoltBackend) Close() error {
	return nil
}
