package models

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabaseFilmsRoundTrip(t *testing.T) {
	db := newTestDatabase(t)

	films, err := db.LoadFilms()
	if err != nil {
		t.Fatalf("LoadFilms failed: %v", err)
	}
	if len(films) != 0 {
		t.Fatalf("Expected empty film list, got %d", len(films))
	}

	start := time.Date(2026, 1, 31, 19, 45, 0, 0, FestivalZone)
	f := &Film{ID: "1", Title: "First", Favorited: true}
	f.SetSchedule(start, start.Add(time.Hour))
	if err := db.SaveFilms([]*Film{f, {ID: "2", Title: "Second"}}); err != nil {
		t.Fatalf("SaveFilms failed: %v", err)
	}

	films, err = db.LoadFilms()
	if err != nil {
		t.Fatalf("LoadFilms failed: %v", err)
	}
	if len(films) != 2 || films[0].Title != "First" || films[1].Title != "Second" {
		t.Fatalf("Unexpected films: %+v", films)
	}
	if !films[0].StartTime.Equal(start) {
		t.Errorf("Expected start %v, got %v", start, films[0].StartTime)
	}
}

func TestDatabasePreferences(t *testing.T) {
	db := newTestDatabase(t)

	prefs, err := db.LoadPreferences()
	if err != nil {
		t.Fatalf("LoadPreferences failed: %v", err)
	}
	if prefs.MyShareID != "" {
		t.Errorf("Expected empty preferences")
	}

	prefs.DisplayName = "Anna"
	prefs.MyShareID = "abc123"
	if err := db.SavePreferences(prefs); err != nil {
		t.Fatalf("SavePreferences failed: %v", err)
	}

	loaded, err := db.LoadPreferences()
	if err != nil {
		t.Fatalf("LoadPreferences failed: %v", err)
	}
	if loaded.DisplayName != "Anna" || loaded.MyShareID != "abc123" {
		t.Errorf("Unexpected preferences: %+v", loaded)
	}
}

func TestDatabaseSharedSchedules(t *testing.T) {
	db := newTestDatabase(t)

	if _, err := db.GetSharedSchedule("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	schedule := &SharedSchedule{ID: "tok", OwnerName: "A", Films: []*Film{{ID: "1", Title: "F"}}}
	if err := db.SaveSharedSchedule(schedule); err != nil {
		t.Fatalf("SaveSharedSchedule failed: %v", err)
	}

	got, err := db.GetSharedSchedule("tok")
	if err != nil {
		t.Fatalf("GetSharedSchedule failed: %v", err)
	}
	if got.OwnerName != "A" || len(got.Films) != 1 {
		t.Errorf("Unexpected schedule: %+v", got)
	}

	count, err := db.CountSharedSchedules()
	if err != nil {
		t.Fatalf("CountSharedSchedules failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 share, got %d", count)
	}
}

func TestPreferencesValidate(t *testing.T) {
	if err := (&Preferences{NotionAPIKey: "k"}).Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for key without database, got %v", err)
	}
	if err := (&Preferences{NotionDatabaseID: "d"}).Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for database without key, got %v", err)
	}
	if err := (&Preferences{}).Validate(); err != nil {
		t.Errorf("Expected empty credentials to be valid, got %v", err)
	}
	if err := (&Preferences{NotionAPIKey: "k", NotionDatabaseID: "d"}).Validate(); err != nil {
		t.Errorf("Expected full credentials to be valid, got %v", err)
	}
}
