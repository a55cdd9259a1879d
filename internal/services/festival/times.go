package festival

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amaumene/festplan/internal/models"
)

var (
	// "2026-01-31 19:45"
	datetimeAttrRe = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})\s+(\d{2}):(\d{2})`)
	// "Saturday 31 January 2026 | 18.30 - 20.03" or "zaterdag 31 januari 2026 | 19.45 - 22.57"
	longFormRe = regexp.MustCompile(`(?i)(Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday|Maandag|Dinsdag|Woensdag|Donderdag|Vrijdag|Zaterdag|Zondag)\s+(\d{1,2})\s+(January|February|March|April|May|June|July|August|September|October|November|December|januari|februari|maart|april|mei|juni|juli|augustus|september|oktober|november|december)\s+(\d{4})\s*\|\s*(\d{1,2})\.(\d{2})\s*-\s*(\d{1,2})\.(\d{2})`)
	// "| 19.45 - 22.57"
	endOnlyRe = regexp.MustCompile(`\|\s*\d{1,2}\.\d{2}\s*-\s*(\d{1,2})\.(\d{2})`)
)

var months = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
	"januari": time.January, "februari": time.February, "maart": time.March,
	"mei": time.May, "juni": time.June, "juli": time.July, "augustus": time.August,
	"oktober": time.October,
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func (d civilDate) at(hour, minute int) time.Time {
	return time.Date(d.year, d.month, d.day, hour, minute, 0, 0, models.FestivalZone)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func validClock(hour, minute int) bool {
	return hour >= 0 && hour <= 24 && minute >= 0 && minute < 60
}

func validDate(year int, month time.Month, day int) bool {
	if month < time.January || month > time.December || day < 1 {
		return false
	}
	// time.Date normalizes overflow, so a round trip detects Feb 30 and friends
	t := time.Date(year, month, day, 0, 0, 0, 0, models.FestivalZone)
	return t.Day() == day && t.Month() == month
}

// parseDatetimeAttr reads the machine-readable "YYYY-MM-DD HH:MM" attribute
func parseDatetimeAttr(attr string) (civilDate, time.Time, bool) {
	m := datetimeAttrRe.FindStringSubmatch(attr)
	if m == nil {
		return civilDate{}, time.Time{}, false
	}
	date := civilDate{year: atoi(m[1]), month: time.Month(atoi(m[2])), day: atoi(m[3])}
	hour, minute := atoi(m[4]), atoi(m[5])
	if !validDate(date.year, date.month, date.day) || !validClock(hour, minute) {
		return civilDate{}, time.Time{}, false
	}
	return date, date.at(hour, minute), true
}

// parseEndOnly reads the end of a "HH.MM - HH.MM" range
func parseEndOnly(text string) (hour, minute int, ok bool) {
	m := endOnlyRe.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	hour, minute = atoi(m[1]), atoi(m[2])
	return hour, minute, validClock(hour, minute)
}

// parseScreeningTimes resolves the start and end of a screening. The
// datetime attribute is authoritative for the start; the end always comes
// from the human-readable range. A range that ends at or before its start
// runs past midnight and ends on the next day.
func parseScreeningTimes(attr, text string) (start, end time.Time, ok bool) {
	date, start, hasAttr := parseDatetimeAttr(attr)

	if m := longFormRe.FindStringSubmatch(text); m != nil {
		month, known := months[strings.ToLower(m[3])]
		textDate := civilDate{year: atoi(m[4]), month: month, day: atoi(m[2])}
		startHour, startMinute := atoi(m[5]), atoi(m[6])
		endHour, endMinute := atoi(m[7]), atoi(m[8])
		if known && validDate(textDate.year, textDate.month, textDate.day) &&
			validClock(startHour, startMinute) && validClock(endHour, endMinute) {
			if !hasAttr {
				start = textDate.at(startHour, startMinute)
				date, hasAttr = textDate, true
			}
			end = textDate.at(endHour, endMinute)
		}
	} else if !hasAttr {
		return time.Time{}, time.Time{}, false
	}

	if !hasAttr {
		return time.Time{}, time.Time{}, false
	}

	if end.IsZero() {
		hour, minute, found := parseEndOnly(text)
		if !found {
			return time.Time{}, time.Time{}, false
		}
		end = date.at(hour, minute)
	}

	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}

	return start.UTC(), end.UTC(), true
}
