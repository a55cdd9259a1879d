package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

const (
	filmListKey    = "films"
	preferencesKey = "preferences"
)

// FilmList is the persisted, ordered local film collection
type FilmList struct {
	Films     []*Film   `json:"films"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Database wraps the bolthold store
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Encoder: json.Marshal,
		Decoder: json.Unmarshal,
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Film list operations

// SaveFilms replaces the stored film list
func (db *Database) SaveFilms(films []*Film) error {
	list := &FilmList{
		Films:     films,
		UpdatedAt: time.Now(),
	}
	return db.store.Upsert(filmListKey, list)
}

// LoadFilms returns the stored film list, empty when nothing was saved yet
func (db *Database) LoadFilms() ([]*Film, error) {
	var list FilmList
	err := db.store.Get(filmListKey, &list)
	if errors.Is(err, bolthold.ErrNotFound) {
		return []*Film{}, nil
	}
	if err != nil {
		return nil, err
	}
	return list.Films, nil
}

// Preferences operations

// SavePreferences stores the preferences singleton
func (db *Database) SavePreferences(prefs *Preferences) error {
	return db.store.Upsert(preferencesKey, prefs)
}

// LoadPreferences returns the stored preferences or zero values
func (db *Database) LoadPreferences() (*Preferences, error) {
	var prefs Preferences
	err := db.store.Get(preferencesKey, &prefs)
	if errors.Is(err, bolthold.ErrNotFound) {
		return &Preferences{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

// Shared schedule operations

// SaveSharedSchedule upserts a shared schedule under its ID
func (db *Database) SaveSharedSchedule(schedule *SharedSchedule) error {
	if schedule.ID == "" {
		return fmt.Errorf("%w: share ID is required", ErrValidation)
	}
	return db.store.Upsert(schedule.ID, schedule)
}

// GetSharedSchedule retrieves a shared schedule by ID
func (db *Database) GetSharedSchedule(id string) (*SharedSchedule, error) {
	var schedule SharedSchedule
	err := db.store.Get(id, &schedule)
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, fmt.Errorf("share %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if schedule.ID == "" {
		schedule.ID = id
	}
	return &schedule, nil
}

// CountSharedSchedules returns the number of stored shares
func (db *Database) CountSharedSchedules() (int, error) {
	var schedules []SharedSchedule
	if err := db.store.Find(&schedules, nil); err != nil {
		return 0, err
	}
	return len(schedules), nil
}
