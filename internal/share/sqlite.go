package share

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/festplan/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// shareRow is one shared schedule stored as a JSON document
type shareRow struct {
	ID        string `gorm:"primaryKey;size:64"`
	OwnerName string `gorm:"size:255"`
	Document  string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (shareRow) TableName() string {
	return "shared_schedules"
}

// SQLBackend keeps shares in a single sqlite table
type SQLBackend struct {
	db *gorm.DB
}

// NewSQLBackend opens (and migrates) the sqlite file at path
func NewSQLBackend(path string) (*SQLBackend, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open shares database: %w", err)
	}
	if err := db.AutoMigrate(&shareRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate shares database: %w", err)
	}
	return &SQLBackend{db: db}, nil
}

// Load reads a share by id
func (b *SQLBackend) Load(ctx context.Context, id string) (*models.SharedSchedule, error) {
	var row shareRow
	err := b.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("share %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var films []*models.Film
	if err := json.Unmarshal([]byte(row.Document), &films); err != nil {
		return nil, fmt.Errorf("failed to decode share %s: %w", id, err)
	}
	return &models.SharedSchedule{
		ID:        row.ID,
		OwnerName: row.OwnerName,
		Films:     films,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// Save upserts a share
func (b *SQLBackend) Save(ctx context.Context, schedule *models.SharedSchedule) error {
	doc, err := json.Marshal(schedule.Films)
	if err != nil {
		return fmt.Errorf("failed to encode share %s: %w", schedule.ID, err)
	}
	row := shareRow{
		ID:        schedule.ID,
		OwnerName: schedule.OwnerName,
		Document:  string(doc),
		CreatedAt: schedule.CreatedAt,
		UpdatedAt: schedule.UpdatedAt,
	}
	return b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner_name", "document", "updated_at"}),
	}).Create(&row).Error
}

// Count returns the number of shares
func (b *SQLBackend) Count(ctx context.Context) (int, error) {
	var n int64
	if err := b.db.WithContext(ctx).Model(&shareRow{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

// Close closes the underlying connection pool
func (b *SQLBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
