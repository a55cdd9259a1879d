package schedule

import (
	"github.com/amaumene/festplan/internal/models"
)

// occupiesCalendar reports whether a film takes part in overlap checks
func occupiesCalendar(f *models.Film) bool {
	return f.IsScheduled() && !f.Unavailable
}

// Overlaps reports whether a and b share time on the same festival day.
// Intervals are half-open, so back-to-back screenings do not overlap.
func Overlaps(a, b *models.Film) bool {
	if !occupiesCalendar(a) || !occupiesCalendar(b) {
		return false
	}
	if !models.SameLocalDay(*a.StartTime, *b.StartTime) {
		return false
	}
	return a.StartTime.Before(*b.EndTime) && a.EndTime.After(*b.StartTime)
}

// OverlapsOf returns target and every film overlapping it, in the order of
// all. An unscheduled target yields nil and an unavailable target only
// itself.
func OverlapsOf(target *models.Film, all []*models.Film) []*models.Film {
	if !target.IsScheduled() {
		return nil
	}
	if target.Unavailable {
		return []*models.Film{target}
	}

	var out []*models.Film
	included := false
	for _, f := range all {
		if f.ID.Equal(target.ID) {
			out = append(out, f)
			included = true
			continue
		}
		if Overlaps(target, f) {
			out = append(out, f)
		}
	}
	if !included {
		out = append(out, target)
	}
	return out
}
