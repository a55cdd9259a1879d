package schedule

import (
	"time"

	"github.com/amaumene/festplan/internal/models"
	"github.com/amaumene/festplan/internal/utils"
)

// Classify picks the visual class of a calendar block.
// Precedence: unavailable > moderating > ticket > favorited > default.
func Classify(f *models.Film) models.Display {
	switch {
	case f.Unavailable:
		return models.DisplayUnavailable
	case f.Moderating:
		return models.DisplayModerating
	case f.Ticket:
		return models.DisplayTicket
	case f.Favorited:
		return models.DisplayFavorited
	default:
		return models.DisplayDefault
	}
}

// HasTicketEquivalent reports whether the person is attending: moderating
// counts as holding a ticket
func HasTicketEquivalent(f *models.Film) bool {
	return f.Ticket || f.Moderating
}

// TicketToggleEnabled reports whether the ticket flag may be toggled
func TicketToggleEnabled(f *models.Film) bool {
	return f.IsScheduled() && !f.Moderating
}

// Slot is a positioned calendar block for one film
type Slot struct {
	Film            *models.Film   `json:"film"`
	Display         models.Display `json:"display"`
	Column          int            `json:"column"`
	Columns         int            `json:"columns"`
	Simplified      bool           `json:"simplified"`
	StartMinute     int            `json:"startMinute"`
	DurationMinutes int            `json:"durationMinutes"`
	VenueCode       string         `json:"venueCode"`
	TicketEnabled   bool           `json:"ticketEnabled"`
}

// LayoutDay positions the scheduled films of one festival day. Films that
// overlap share the width of the day column and are drawn simplified.
func LayoutDay(day time.Time, films []*models.Film, venues *utils.Venues) []Slot {
	var dayFilms []*models.Film
	for _, f := range films {
		if f.IsScheduled() && models.SameLocalDay(*f.StartTime, day) {
			dayFilms = append(dayFilms, f)
		}
	}

	slots := make([]Slot, 0, len(dayFilms))
	for _, f := range dayFilms {
		group := OverlapsOf(f, dayFilms)
		column := 0
		for i, g := range group {
			if g.ID.Equal(f.ID) {
				column = i
				break
			}
		}

		local := f.StartTime.In(models.FestivalZone)
		slots = append(slots, Slot{
			Film:            f,
			Display:         Classify(f),
			Column:          column,
			Columns:         len(group),
			Simplified:      len(group) > 1,
			StartMinute:     local.Hour()*60 + local.Minute(),
			DurationMinutes: f.DurationMinutes(),
			VenueCode:       venues.Shortcode(f.Location),
			TicketEnabled:   TicketToggleEnabled(f),
		})
	}
	return slots
}
