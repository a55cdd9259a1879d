package share

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/amaumene/festplan/internal/models"
)

// CalendarICS renders the scheduled films of a shared schedule as an
// iCalendar feed. Blocked time is exported without its details.
func CalendarICS(schedule *models.SharedSchedule, festivalName string) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//festplan//" + festivalName + " schedule//EN")
	cal.SetXWRCalName(fmt.Sprintf("%s - %s", schedule.OwnerName, festivalName))

	stamp := schedule.UpdatedAt
	if stamp.IsZero() {
		stamp = time.Now()
	}

	for _, film := range schedule.Films {
		if !film.IsScheduled() {
			continue
		}
		f := film.Public()

		event := cal.AddEvent(fmt.Sprintf("%s-%s@festplan", schedule.ID, f.ID))
		event.SetDtStampTime(stamp.UTC())
		event.SetStartAt(f.StartTime.UTC())
		event.SetEndAt(f.EndTime.UTC())
		event.SetSummary(f.Title)
		if f.Location != "" {
			event.SetLocation(f.Location)
		}
		if desc := eventDescription(f); desc != "" {
			event.SetDescription(desc)
		}
		if f.ExternalLink != "" && !f.Unavailable {
			event.SetURL(f.ExternalLink)
		}
	}

	return cal.Serialize()
}

func eventDescription(f *models.Film) string {
	var lines []string
	if f.Director != "" {
		lines = append(lines, "Director: "+f.Director)
	}
	if f.Country != "" {
		lines = append(lines, "Country: "+f.Country)
	}
	if f.Programme != "" {
		lines = append(lines, "Programme: "+f.Programme)
	}
	if len(f.CombinedFilms) > 0 {
		titles := make([]string, len(f.CombinedFilms))
		for i, cf := range f.CombinedFilms {
			titles[i] = cf.Title
		}
		lines = append(lines, "Films: "+strings.Join(titles, ", "))
	}
	switch {
	case f.Moderating:
		lines = append(lines, "Moderating")
	case f.Ticket:
		lines = append(lines, "Ticket")
	}
	if f.HasQA {
		lines = append(lines, "With Q&A")
	}
	return strings.Join(lines, "\n")
}
