package share

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amaumene/festplan/internal/models"
	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newBoltService(t *testing.T) *Service {
	t.Helper()
	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "shares.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(NewBoltBackend(db), newTestLogger())
}

// fakeClock advances by a minute on every call
func fakeClock() func() time.Time {
	now := time.Date(2026, 1, 29, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func testPutThenPut(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()
	svc.now = fakeClock()

	first, err := svc.Put(ctx, "", &models.SharedSchedule{OwnerName: "A", Films: []*models.Film{}})
	if err != nil {
		t.Fatalf("First put failed: %v", err)
	}
	if first.ID == "" {
		t.Fatal("Expected a minted share id")
	}

	film := &models.Film{ID: "f", Title: "Film", Ticket: true}
	second, err := svc.Put(ctx, first.ID, &models.SharedSchedule{OwnerName: "A", Films: []*models.Film{film}})
	if err != nil {
		t.Fatalf("Second put failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("Expected the same share id, got %q and %q", first.ID, second.ID)
	}

	got, err := svc.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Films) != 1 || got.Films[0].Title != "Film" || !got.Films[0].Ticket {
		t.Errorf("Expected the second version, got %+v", got.Films)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("Expected createdAt %v to be preserved, got %v", first.CreatedAt, got.CreatedAt)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("Expected updatedAt %v after createdAt %v", got.UpdatedAt, got.CreatedAt)
	}

	n, err := svc.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 share, got %d", n)
	}
}

func TestServicePutThenPutBolt(t *testing.T) {
	testPutThenPut(t, newBoltService(t))
}

func TestServicePutThenPutSQLite(t *testing.T) {
	backend, err := NewSQLBackend(filepath.Join(t.TempDir(), "shares.sqlite"))
	if err != nil {
		t.Fatalf("NewSQLBackend failed: %v", err)
	}
	svc := NewService(backend, newTestLogger())
	t.Cleanup(func() { svc.Close() })
	testPutThenPut(t, svc)
}

func TestServicePutThenPutRedis(t *testing.T) {
	addr := os.Getenv("FESTPLAN_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FESTPLAN_TEST_REDIS_ADDR not set")
	}
	backend, err := NewRedisBackend(context.Background(), addr, "", 15)
	if err != nil {
		t.Fatalf("NewRedisBackend failed: %v", err)
	}
	backend.client.FlushDB(context.Background())
	svc := NewService(backend, newTestLogger())
	t.Cleanup(func() { svc.Close() })
	testPutThenPut(t, svc)
}

func TestServicePutUnknownIDCreates(t *testing.T) {
	svc := newBoltService(t)
	stored, err := svc.Put(context.Background(), "chosen-id", &models.SharedSchedule{OwnerName: "B"})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if stored.ID != "chosen-id" {
		t.Errorf("Expected the explicit id to be kept, got %q", stored.ID)
	}
	if stored.Films == nil {
		t.Error("Expected an empty film list, not nil")
	}
}

func TestServiceValidation(t *testing.T) {
	svc := newBoltService(t)
	ctx := context.Background()

	if _, err := svc.Put(ctx, "", &models.SharedSchedule{}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected validation error without owner, got %v", err)
	}
	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
	if _, err := svc.Get(ctx, " "); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected validation error for empty id, got %v", err)
	}
}

func TestServicePutCopiesFilms(t *testing.T) {
	svc := newBoltService(t)
	film := &models.Film{ID: "f", Title: "Film"}
	stored, err := svc.Put(context.Background(), "", &models.SharedSchedule{OwnerName: "C", Films: []*models.Film{film}})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	film.Title = "changed"
	if stored.Films[0].Title != "Film" {
		t.Error("Stored schedule shares film pointers with the caller")
	}
}

func TestServiceGetHidesBlockedTimeDetails(t *testing.T) {
	svc := newBoltService(t)
	ctx := context.Background()
	blocked := &models.Film{ID: "b", Title: "Jury meeting", Director: "Someone", Country: "NL", Programme: "Tiger", Unavailable: true}
	stored, err := svc.Put(ctx, "", &models.SharedSchedule{OwnerName: "C", Films: []*models.Film{blocked}})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := svc.Get(ctx, stored.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	f := got.Films[0]
	if f.Director != "" || f.Country != "" || f.Programme != "" {
		t.Errorf("Expected blocked time details hidden, got %+v", f)
	}
	if f.Title != "Jury meeting" || !f.Unavailable {
		t.Errorf("Expected title and flag kept, got %+v", f)
	}
}

func TestNewTokenIsOpaque(t *testing.T) {
	a, b := NewToken(), NewToken()
	if a == b || len(a) != 32 || strings.Contains(a, "-") {
		t.Errorf("Unexpected tokens %q %q", a, b)
	}
}

func TestCalendarICS(t *testing.T) {
	schedule := sampleSchedule()
	schedule.ID = "share1"
	blocked := &models.Film{ID: "u", Title: models.UnavailableBlockTitle, Unavailable: true, Director: "hidden"}
	blocked.SetSchedule(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC), time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC))
	schedule.Films = append(schedule.Films, blocked)

	out := CalendarICS(schedule, "IFFR")

	if !strings.Contains(out, "BEGIN:VCALENDAR") || !strings.Contains(out, "METHOD:PUBLISH") {
		t.Fatalf("Expected a calendar, got:\n%s", out)
	}
	if n := strings.Count(out, "BEGIN:VEVENT"); n != 2 {
		t.Errorf("Expected 2 events for scheduled films, got %d", n)
	}
	if !strings.Contains(out, "DTSTART:20260131T184500Z") {
		t.Errorf("Expected UTC start time in:\n%s", out)
	}
	if !strings.Contains(out, "UID:share1-f1@festplan") {
		t.Errorf("Expected stable event uid in:\n%s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("Blocked time leaked its details")
	}
}
