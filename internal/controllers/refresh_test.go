package controllers

import (
	"context"
	"errors"
	"testing"

	"github.com/amaumene/festplan/internal/models"
)

func TestRefreshAvailabilityMarksSoldOut(t *testing.T) {
	fx := newFixture(t, testConfig())
	url := "https://iffr.com/en/2026/films/blue-hour"
	fx.parser.results[url] = twoScreenings()
	ctx := context.Background()

	index := 0
	film, err := fx.planner.Import(ctx, ImportRequest{URL: url, Screening: &index})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	ticketed, err := fx.planner.Import(ctx, ImportRequest{URL: url, Screening: &index})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if _, err := fx.planner.ToggleStatus(ctx, ticketed.ID, models.StatusTicket); err != nil {
		t.Fatalf("Ticket toggle failed: %v", err)
	}

	soldOut := twoScreenings()
	soldOut.Screenings[0].MarkUnavailable(models.ReasonSoldOut)
	fx.parser.results[url] = soldOut
	fx.parser.refreshs = 0

	report, err := fx.planner.RefreshAvailability(ctx)
	if err != nil {
		t.Fatalf("RefreshAvailability failed: %v", err)
	}
	if report.Checked != 1 || report.Updated != 1 {
		t.Errorf("Expected only the ticketless film checked, got %+v", report)
	}
	if fx.parser.refreshs != 1 {
		t.Errorf("Expected one re-parse, got %d", fx.parser.refreshs)
	}
	if len(report.NowUnavailable) != 1 || report.NowUnavailable[0] != film.ID {
		t.Errorf("Expected %s reported unavailable, got %v", film.ID, report.NowUnavailable)
	}

	stored, _ := fx.planner.Film(film.ID)
	if !stored.IsScheduled() {
		t.Error("Expected the film to stay scheduled")
	}
	if stored.Screenings[0].UnavailableReason != models.ReasonSoldOut {
		t.Errorf("Expected screening marked sold out, got %q", stored.Screenings[0].UnavailableReason)
	}
}

func TestRefreshAvailabilityAllFailed(t *testing.T) {
	fx := newFixture(t, testConfig())
	url := "https://iffr.com/en/2026/films/blue-hour"
	fx.parser.results[url] = twoScreenings()
	ctx := context.Background()

	index := 0
	if _, err := fx.planner.Import(ctx, ImportRequest{URL: url, Screening: &index}); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	fx.parser.err = errors.New("offline")

	report, err := fx.planner.RefreshAvailability(ctx)
	if !errors.Is(err, models.ErrFetch) {
		t.Fatalf("Expected a fetch error, got %v", err)
	}
	if report.Failed != 1 {
		t.Errorf("Expected one failure, got %+v", report)
	}
}

func TestRefreshAvailabilityKeepsScreeningsOnPlaceholder(t *testing.T) {
	fx := newFixture(t, testConfig())
	url := "https://iffr.com/en/2026/films/blue-hour"
	fx.parser.results[url] = twoScreenings()
	ctx := context.Background()

	index := 0
	film, err := fx.planner.Import(ctx, ImportRequest{URL: url, Screening: &index})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	fx.parser.results[url] = placeholderResult()

	report, err := fx.planner.RefreshAvailability(ctx)
	if err != nil {
		t.Fatalf("RefreshAvailability failed: %v", err)
	}
	if report.Skipped != 1 || report.Updated != 0 || len(report.NowUnavailable) != 0 {
		t.Errorf("Expected the film skipped, got %+v", report)
	}

	stored, _ := fx.planner.Film(film.ID)
	if len(stored.Screenings) != 2 || stored.Screenings[0].NeedsManualEntry {
		t.Errorf("Expected stored screenings kept, got %+v", stored.Screenings)
	}
}
