package controllers

import (
	"context"
	"fmt"

	"github.com/amaumene/festplan/internal/models"
	"github.com/amaumene/festplan/internal/schedule"
	"github.com/sirupsen/logrus"
)

// RefreshReport summarizes one availability refresh
type RefreshReport struct {
	Checked        int             `json:"checked"`
	Updated        int             `json:"updated"`
	Failed         int             `json:"failed"`
	Skipped        int             `json:"skipped"`
	NowUnavailable []models.FilmID `json:"nowUnavailable"`
}

// RefreshAvailability parses the pages of scheduled films without a ticket
// again and stores the fresh screening availability. A film whose own
// screening sold out stays scheduled and is reported.
func (p *Planner) RefreshAvailability(ctx context.Context) (*RefreshReport, error) {
	if err := p.checkWritable(); err != nil {
		return nil, err
	}

	report := &RefreshReport{NowUnavailable: []models.FilmID{}}

	for _, film := range p.store.All() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !film.IsScheduled() || film.Unavailable || schedule.HasTicketEquivalent(film) || film.ExternalLink == "" {
			continue
		}
		report.Checked++

		// Step 1: Fetch the page, bypassing the cache
		fresh, err := p.parser.Refresh(ctx, film.ExternalLink)
		if err != nil {
			report.Failed++
			p.logger.WithError(err).WithField("film", film.ID).Warn("Failed to refresh availability")
			continue
		}
		if !fresh.ListsScreenings() {
			report.Skipped++
			p.logger.WithField("film", film.ID).Warn("Festival page no longer lists screenings, keeping stored screenings")
			continue
		}

		// Step 2: Store the fresh screenings
		updated, err := p.store.Update(film.ID, func(f *models.Film) error {
			mergeFresh(f, fresh)
			return nil
		})
		if err != nil {
			report.Failed++
			p.logger.WithError(err).WithField("film", film.ID).Warn("Failed to store refreshed screenings")
			continue
		}
		report.Updated++
		p.afterUpdate(updated)

		// Step 3: Report if the chosen screening is gone
		if s, found := currentScreening(updated); found && !s.Available {
			report.NowUnavailable = append(report.NowUnavailable, updated.ID)
			p.logger.WithFields(logrus.Fields{
				"film":   updated.ID,
				"title":  updated.Title,
				"reason": s.UnavailableReason,
			}).Warn("Scheduled screening is no longer available")
		}
	}

	p.logger.WithFields(logrus.Fields{
		"checked":        report.Checked,
		"updated":        report.Updated,
		"failed":         report.Failed,
		"skipped":        report.Skipped,
		"nowUnavailable": len(report.NowUnavailable),
	}).Info("Availability refresh completed")

	if report.Checked > 0 && report.Failed == report.Checked {
		return report, fmt.Errorf("%w: every availability refresh failed", models.ErrFetch)
	}
	return report, nil
}

// currentScreening finds the screening a film is scheduled at
func currentScreening(f *models.Film) (models.Screening, bool) {
	if !f.IsScheduled() {
		return models.Screening{}, false
	}
	for _, s := range f.Screenings {
		if s.StartTime.Equal(*f.StartTime) && (f.Location == "" || s.Location == f.Location) {
			return s, true
		}
	}
	return models.Screening{}, false
}
