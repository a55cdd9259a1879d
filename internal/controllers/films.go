package controllers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amaumene/festplan/internal/mapper"
	"github.com/amaumene/festplan/internal/models"
	"github.com/amaumene/festplan/internal/schedule"
	"github.com/amaumene/festplan/internal/services/festival"
	"github.com/sirupsen/logrus"
)

// ManualEntry is a film or blocked time entered by hand
type ManualEntry struct {
	Title       string `json:"title"`
	Director    string `json:"director"`
	Country     string `json:"country"`
	Programme   string `json:"programme"`
	Date        string `json:"date"`      // YYYY-MM-DD
	StartTime   string `json:"startTime"` // HH:MM
	EndTime     string `json:"endTime"`   // HH:MM
	Location    string `json:"location"`
	Room        string `json:"room"`
	Link        string `json:"iffrLink"`
	Moderating  bool   `json:"moderating"`
	Favorited   bool   `json:"favorited"`
	Ticket      bool   `json:"ticket"`
	Unavailable bool   `json:"unavailable"`
	Notes       string `json:"notes"`
}

// ImportRequest adds a film from a festival page
type ImportRequest struct {
	URL           string `json:"url"`
	Screening     *int   `json:"screening,omitempty"`
	FavoritesOnly bool   `json:"favoritesOnly"`
}

func parseClock(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid time %q", models.ErrValidation, clock)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, models.FestivalZone), nil
}

// AddManual adds a hand-entered film. An end at or before the start is read
// as running past midnight.
func (p *Planner) AddManual(ctx context.Context, entry ManualEntry) (*models.Film, error) {
	if err := p.checkWritable(); err != nil {
		return nil, err
	}

	date, err := models.ParseLocalDate(strings.TrimSpace(entry.Date))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", models.ErrValidation, entry.Date)
	}
	start, err := parseClock(date, entry.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseClock(date, entry.EndTime)
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}

	title := strings.TrimSpace(entry.Title)
	if title == "" && entry.Unavailable {
		title = models.UnavailableBlockTitle
	}
	location := strings.TrimSpace(entry.Location)
	if room := strings.TrimSpace(entry.Room); room != "" {
		location = strings.TrimSpace(location + " " + room)
	}

	film := &models.Film{
		Title:         title,
		Director:      strings.TrimSpace(entry.Director),
		Country:       strings.TrimSpace(entry.Country),
		Programme:     strings.TrimSpace(entry.Programme),
		Location:      location,
		ExternalLink:  strings.TrimSpace(entry.Link),
		Moderating:    entry.Moderating,
		Favorited:     entry.Favorited,
		Ticket:        entry.Ticket,
		Unavailable:   entry.Unavailable,
		Notes:         entry.Notes,
		Screenings:    []models.Screening{},
		CombinedFilms: []models.CombinedFilm{},
	}
	film.SetSchedule(start.UTC(), end.UTC())

	added, err := p.store.Add(film)
	if err != nil {
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"film":        added.ID,
		"title":       added.Title,
		"unavailable": added.Unavailable,
	}).Info("Added film manually")

	p.afterCreate(added)
	return added, nil
}

// Import parses a festival page and adds it either scheduled at one of its
// screenings or as a favorite carrying every screening
func (p *Planner) Import(ctx context.Context, req ImportRequest) (*models.Film, error) {
	if err := p.checkWritable(); err != nil {
		return nil, err
	}
	if err := festival.ValidateURL(strings.TrimSpace(req.URL)); err != nil {
		return nil, err
	}

	result, err := p.parser.Parse(ctx, strings.TrimSpace(req.URL))
	if err != nil {
		return nil, err
	}

	film := filmFromResult(result, req.URL)

	if req.FavoritesOnly {
		film.Favorited = true
	} else {
		index := 0
		switch {
		case req.Screening != nil:
			index = *req.Screening
		case len(result.Screenings) != 1:
			return nil, fmt.Errorf("%w: choose one of %d screenings", models.ErrValidation, len(result.Screenings))
		}
		if err := applyScreening(film, index); err != nil {
			return nil, err
		}
		addMemberFilms(film, film.Screenings[index])
	}

	added, err := p.store.Add(film)
	if err != nil {
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"film":      added.ID,
		"title":     added.Title,
		"scheduled": added.IsScheduled(),
	}).Info("Imported film")

	p.afterCreate(added)
	return added, nil
}

func filmFromResult(result *festival.Result, sourceURL string) *models.Film {
	link := result.Link
	if link == "" {
		link = strings.TrimSpace(sourceURL)
	}
	film := &models.Film{
		Title:               result.Title,
		Director:            result.Director,
		Country:             result.Country,
		Programme:           result.Programme,
		ExternalLink:        link,
		Screenings:          result.Screenings,
		IsCombinedProgramme: result.IsCombinedProgramme,
		CombinedFilms:       result.CombinedFilms,
	}
	if film.Screenings == nil {
		film.Screenings = []models.Screening{}
	}
	if film.CombinedFilms == nil {
		film.CombinedFilms = []models.CombinedFilm{}
	}
	return film
}

// applyScreening schedules film at one of its screenings
func applyScreening(film *models.Film, index int) error {
	if index < 0 || index >= len(film.Screenings) {
		return fmt.Errorf("%w: this screening is no longer available, select a different screening", models.ErrValidation)
	}
	s := film.Screenings[index]
	if !s.Available {
		return fmt.Errorf("%w: this screening is not available: %s", models.ErrValidation, s.UnavailableReason)
	}
	if !s.EndTime.After(s.StartTime) {
		return fmt.Errorf("%w: screening has no valid time range", models.ErrValidation)
	}
	film.SetSchedule(s.StartTime, s.EndTime)
	film.Location = s.Location
	if s.Link != "" {
		film.ExternalLink = s.Link
	}
	film.HasQA = s.HasQA
	return nil
}

// addMemberFilms lists a screening's member films as combined films
func addMemberFilms(film *models.Film, s models.Screening) {
	for _, title := range s.MemberFilmTitles {
		if !film.HasCombinedTitle(title) {
			film.CombinedFilms = append(film.CombinedFilms, models.CombinedFilm{Title: title})
		}
	}
	if len(film.CombinedFilms) > 1 {
		film.IsCombinedProgramme = true
	}
}

// ScheduleFromFavorites places a favorite at one of its stored screenings
func (p *Planner) ScheduleFromFavorites(ctx context.Context, id models.FilmID, index int) (*models.Film, error) {
	if err := p.checkWritable(); err != nil {
		return nil, err
	}
	updated, err := p.store.Update(id, func(f *models.Film) error {
		return applyScreening(f, index)
	})
	if err != nil {
		return nil, err
	}
	p.logger.WithFields(logrus.Fields{"film": id, "screening": index}).Info("Scheduled favorite")
	p.afterUpdate(updated)
	return updated, nil
}

// SwitchScreening moves a film to another screening. The page is parsed
// again first so availability is current; if that fails the stored
// screenings are used.
func (p *Planner) SwitchScreening(ctx context.Context, id models.FilmID, index int) (*models.Film, error) {
	if err := p.checkWritable(); err != nil {
		return nil, err
	}
	current, ok := p.store.Find(id)
	if !ok {
		return nil, fmt.Errorf("film %s: %w", id, models.ErrNotFound)
	}

	var fresh *festival.Result
	if current.ExternalLink != "" && p.parser != nil {
		result, err := p.parser.Refresh(ctx, current.ExternalLink)
		switch {
		case err != nil:
			p.logger.WithError(err).WithField("film", id).Warn("Failed to re-parse festival page, using stored screenings")
		case !result.ListsScreenings():
			p.logger.WithField("film", id).Warn("Festival page no longer lists screenings, using stored screenings")
		default:
			fresh = result
		}
	}

	updated, err := p.store.Update(id, func(f *models.Film) error {
		if fresh != nil {
			mergeFresh(f, fresh)
		}
		return applyScreening(f, index)
	})
	if err != nil {
		// Fresh availability is still worth keeping when the switch is refused
		if fresh != nil {
			if kept, keepErr := p.store.Update(id, func(f *models.Film) error {
				mergeFresh(f, fresh)
				return nil
			}); keepErr == nil {
				p.afterUpdate(kept)
			}
		}
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{"film": id, "screening": index}).Info("Switched screening")
	p.afterUpdate(updated)
	return updated, nil
}

// mergeFresh replaces the screenings and fills metadata that is still empty.
// Fallback screenings never replace stored ones.
func mergeFresh(f *models.Film, fresh *festival.Result) {
	if fresh.ListsScreenings() {
		f.Screenings = fresh.Clone().Screenings
	}
	if f.Director == "" {
		f.Director = fresh.Director
	}
	if f.Country == "" {
		f.Country = fresh.Country
	}
	if f.Programme == "" {
		f.Programme = fresh.Programme
	}
}

// Unschedule clears a film's time and location and keeps it as a favorite
func (p *Planner) Unschedule(ctx context.Context, id models.FilmID) (*models.Film, error) {
	if err := p.checkWritable(); err != nil {
		return nil, err
	}
	updated, err := p.store.Update(id, func(f *models.Film) error {
		if !f.IsScheduled() {
			return fmt.Errorf("%w: this film is not scheduled", models.ErrValidation)
		}
		f.ClearSchedule()
		f.Location = ""
		f.Favorited = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.logger.WithField("film", id).Info("Unscheduled film")
	p.afterUpdate(updated)
	return updated, nil
}

// Delete removes a film locally and archives its remote copy
func (p *Planner) Delete(ctx context.Context, id models.FilmID) error {
	if err := p.checkWritable(); err != nil {
		return err
	}
	removed, err := p.store.Remove(id)
	if err != nil {
		return err
	}
	p.logger.WithFields(logrus.Fields{"film": id, "title": removed.Title}).Info("Deleted film")
	p.afterDelete(removed)
	return nil
}

// ToggleStatus flips one status flag. The ticket flag needs a scheduled
// film that is not moderated.
func (p *Planner) ToggleStatus(ctx context.Context, id models.FilmID, status models.StatusType) (*models.Film, error) {
	if err := p.checkWritable(); err != nil {
		return nil, err
	}

	var value bool
	updated, err := p.store.Update(id, func(f *models.Film) error {
		switch status {
		case models.StatusFavorited:
			f.Favorited = !f.Favorited
			value = f.Favorited
		case models.StatusTicket:
			if !schedule.TicketToggleEnabled(f) {
				return fmt.Errorf("%w: ticket can only be toggled on a scheduled film you are not moderating", models.ErrValidation)
			}
			f.Ticket = !f.Ticket
			value = f.Ticket
		case models.StatusModerating:
			f.Moderating = !f.Moderating
			value = f.Moderating
		default:
			return fmt.Errorf("%w: unknown status %q", models.ErrValidation, status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"film":   id,
		"status": status,
		"value":  value,
	}).Info("Toggled film status")

	p.afterStatus(updated, mapper.StatusProperties(status, value))
	return updated, nil
}
