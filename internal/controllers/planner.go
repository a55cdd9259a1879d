package controllers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amaumene/festplan/internal/config"
	"github.com/amaumene/festplan/internal/mapper"
	"github.com/amaumene/festplan/internal/models"
	"github.com/amaumene/festplan/internal/schedule"
	"github.com/amaumene/festplan/internal/services/festival"
	"github.com/amaumene/festplan/internal/services/notion"
	"github.com/amaumene/festplan/internal/share"
	"github.com/amaumene/festplan/internal/utils"
	"github.com/sirupsen/logrus"
)

// PageParser fetches and extracts festival pages
type PageParser interface {
	Parse(ctx context.Context, pageURL string) (*festival.Result, error)
	Refresh(ctx context.Context, pageURL string) (*festival.Result, error)
}

// RemoteDatabase mirrors films to an external database
type RemoteDatabase interface {
	QueryDatabase(ctx context.Context, creds notion.Credentials) ([]notion.Page, error)
	TestConnection(ctx context.Context, creds notion.Credentials) error
	CreatePage(ctx context.Context, creds notion.Credentials, properties map[string]notion.Property) (*notion.Page, error)
	UpdatePage(ctx context.Context, apiKey, pageID string, properties map[string]notion.Property) (*notion.Page, error)
	ArchivePage(ctx context.Context, apiKey, pageID string) error
}

// Planner owns the local schedule and every operation that changes it. Local
// state is committed first; the remote mirror and the own share follow in
// the background.
type Planner struct {
	store    *schedule.Store
	db       *models.Database
	parser   PageParser
	remote   RemoteDatabase
	shares   *share.Service
	venues   *utils.Venues
	cfg      *config.Config
	logger   *logrus.Logger
	readOnly bool
	owner    string

	prefsMu sync.RWMutex
	prefs   *models.Preferences

	syncStatus *SyncStatus
	background sync.WaitGroup

	mirrorMu sync.Mutex
	mirrors  map[models.FilmID]*filmMirror

	publishMu      sync.Mutex
	publishStateMu sync.Mutex
	publishPending bool
	publishRunning bool
}

// NewPlanner creates the planner for the local schedule and wires the store
// to the database
func NewPlanner(
	store *schedule.Store,
	db *models.Database,
	parser PageParser,
	remote RemoteDatabase,
	shares *share.Service,
	venues *utils.Venues,
	cfg *config.Config,
	logger *logrus.Logger,
) (*Planner, error) {
	prefs, err := db.LoadPreferences()
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	p := &Planner{
		store:      store,
		db:         db,
		parser:     parser,
		remote:     remote,
		shares:     shares,
		venues:     venues,
		cfg:        cfg,
		logger:     logger,
		prefs:      prefs,
		syncStatus: &SyncStatus{},
	}

	store.OnChange(func(films []*models.Film) {
		if err := db.SaveFilms(films); err != nil {
			logger.WithError(err).Error("Failed to persist films")
		}
	})

	return p, nil
}

// NewSharedPlanner wraps someone else's schedule. Every mutating operation
// is refused.
func NewSharedPlanner(shared *models.SharedSchedule, venues *utils.Venues, cfg *config.Config, logger *logrus.Logger) (*Planner, error) {
	store := schedule.NewStore()
	films := make([]*models.Film, 0, len(shared.Films))
	seen := make(map[models.FilmID]bool, len(shared.Films))
	for _, f := range shared.Films {
		if err := f.Validate(); err != nil {
			logger.WithError(err).WithField("title", f.Title).Warn("Skipping invalid shared film")
			continue
		}
		pub := f.Public()
		if seen[pub.ID] {
			pub.ID = ""
		}
		seen[pub.ID] = true
		films = append(films, pub)
	}
	if err := store.Replace(films); err != nil {
		return nil, fmt.Errorf("failed to load shared schedule: %w", err)
	}
	return &Planner{
		store:      store,
		venues:     venues,
		cfg:        cfg,
		logger:     logger,
		readOnly:   true,
		owner:      shared.OwnerName,
		prefs:      &models.Preferences{DisplayName: shared.OwnerName},
		syncStatus: &SyncStatus{},
	}, nil
}

// ReadOnly reports whether this planner shows a shared schedule
func (p *Planner) ReadOnly() bool {
	return p.readOnly
}

// Owner returns the name of a shared schedule's owner
func (p *Planner) Owner() string {
	return p.owner
}

func (p *Planner) checkWritable() error {
	if p.readOnly {
		return models.ErrReadOnly
	}
	return nil
}

// Load fills the store. With remote credentials the remote database is the
// source; if it cannot be reached the local copy is used.
func (p *Planner) Load(ctx context.Context) error {
	if err := p.checkWritable(); err != nil {
		return err
	}

	if creds, ok := p.credentials(); ok {
		pages, err := p.remote.QueryDatabase(ctx, creds)
		if err == nil {
			films := mapper.MapPages(pages, p.logger)
			if err := p.store.Replace(films); err != nil {
				return fmt.Errorf("failed to load remote films: %w", err)
			}
			p.syncStatus.recordSuccess("load")
			p.logger.WithField("films", len(films)).Info("Loaded films from remote database")
			return nil
		}
		p.syncStatus.recordFailure("load", err)
		p.logger.WithError(err).Warn("Failed to load remote films, using local copy")
	}

	films, err := p.db.LoadFilms()
	if err != nil {
		return fmt.Errorf("failed to load local films: %w", err)
	}
	if err := p.store.Replace(films); err != nil {
		return fmt.Errorf("failed to load local films: %w", err)
	}
	p.logger.WithField("films", len(films)).Info("Loaded local films")
	return nil
}

// Films returns every film
func (p *Planner) Films() []*models.Film {
	return p.store.All()
}

// Film returns one film
func (p *Planner) Film(id models.FilmID) (*models.Film, error) {
	f, ok := p.store.Find(id)
	if !ok {
		return nil, fmt.Errorf("film %s: %w", id, models.ErrNotFound)
	}
	return f, nil
}

// Favorites returns favorited films that have no time yet
func (p *Planner) Favorites() []*models.Film {
	return p.store.FavoritesUnscheduled()
}

// Day lays out one festival day
func (p *Planner) Day(date time.Time) []schedule.Slot {
	return schedule.LayoutDay(date, p.store.OnDay(date), p.venues)
}

// Counts summarizes the schedule for the status endpoint
func (p *Planner) Counts() map[string]int {
	counts := map[string]int{"total": 0, "scheduled": 0, "favorites": 0, "tickets": 0, "unavailable": 0}
	for _, f := range p.store.All() {
		counts["total"]++
		switch {
		case f.Unavailable:
			counts["unavailable"]++
		case f.IsScheduled():
			counts["scheduled"]++
		case f.Favorited:
			counts["favorites"]++
		}
		if schedule.HasTicketEquivalent(f) {
			counts["tickets"]++
		}
	}
	return counts
}

// ClampToFestival bounds a view anchor to the festival's days
func (p *Planner) ClampToFestival(date time.Time) time.Time {
	day := models.LocalDate(date)
	start := models.LocalDate(time.Date(p.cfg.FestivalStart.Year(), p.cfg.FestivalStart.Month(), p.cfg.FestivalStart.Day(), 12, 0, 0, 0, models.FestivalZone))
	end := models.LocalDate(time.Date(p.cfg.FestivalEnd.Year(), p.cfg.FestivalEnd.Month(), p.cfg.FestivalEnd.Day(), 12, 0, 0, 0, models.FestivalZone))
	switch {
	case day.Before(start):
		return start
	case day.After(end):
		return end
	}
	return day
}

// Preferences returns a copy of the stored preferences
func (p *Planner) Preferences() models.Preferences {
	p.prefsMu.RLock()
	defer p.prefsMu.RUnlock()
	return *p.prefs
}

// UpdatePreferences validates and stores new preferences. The own share id
// is kept unless the caller provides one.
func (p *Planner) UpdatePreferences(prefs models.Preferences) (models.Preferences, error) {
	if err := p.checkWritable(); err != nil {
		return models.Preferences{}, err
	}
	if err := prefs.Validate(); err != nil {
		return models.Preferences{}, err
	}
	if !prefs.ViewAnchor.IsZero() {
		prefs.ViewAnchor = p.ClampToFestival(prefs.ViewAnchor)
	}

	p.prefsMu.Lock()
	defer p.prefsMu.Unlock()

	if prefs.MyShareID == "" {
		prefs.MyShareID = p.prefs.MyShareID
	}
	if err := p.db.SavePreferences(&prefs); err != nil {
		return models.Preferences{}, fmt.Errorf("failed to save preferences: %w", err)
	}
	p.prefs = &prefs
	return prefs, nil
}

// credentials returns the remote credentials in effect: the user's own, else
// the server's
func (p *Planner) credentials() (notion.Credentials, bool) {
	if p.remote == nil {
		return notion.Credentials{}, false
	}
	prefs := p.Preferences()
	if prefs.RemoteSyncEnabled() {
		return notion.Credentials{APIKey: prefs.NotionAPIKey, DatabaseID: prefs.NotionDatabaseID}, true
	}
	if p.cfg.NotionConfigured() {
		return notion.Credentials{APIKey: p.cfg.NotionAPIKey, DatabaseID: p.cfg.NotionDatabaseID}, true
	}
	return notion.Credentials{}, false
}

// SyncStatus returns the last remote sync outcome
func (p *Planner) SyncStatus() SyncSnapshot {
	return p.syncStatus.Snapshot()
}

// Wait blocks until background syncs have finished
func (p *Planner) Wait() {
	p.background.Wait()
}

// Overlaps returns the films that share calendar time with one film,
// including the film itself
func (p *Planner) Overlaps(id models.FilmID) ([]*models.Film, error) {
	target, err := p.Film(id)
	if err != nil {
		return nil, err
	}
	return schedule.OverlapsOf(target, p.store.All()), nil
}
