package models

import "time"

// UnavailableReason explains why a screening cannot be booked
type UnavailableReason string

const (
	ReasonNone          UnavailableReason = ""
	ReasonSoldOut       UnavailableReason = "Sold Out"
	ReasonPressIndustry UnavailableReason = "Press & Industry"
	ReasonNotAvailable  UnavailableReason = "Not Available"
)

// UnavailableBlockTitle is given to blocked time entered without a title
const UnavailableBlockTitle = "Unavailable for IFFR"

// StatusType names a toggleable film flag
type StatusType string

const (
	StatusFavorited  StatusType = "favorited"
	StatusTicket     StatusType = "ticket"
	StatusModerating StatusType = "moderating"
)

// Display is the visual class of a calendar block
type Display string

const (
	DisplayUnavailable Display = "unavailable"
	DisplayModerating  Display = "moderating"
	DisplayTicket      Display = "ticket"
	DisplayFavorited   Display = "favorited"
	DisplayDefault     Display = "default"
)

// FestivalZone is the festival's winter wall clock (CET, no DST handling)
var FestivalZone = time.FixedZone("CET", 60*60)

// LocalDate truncates t to midnight of its calendar day in FestivalZone
func LocalDate(t time.Time) time.Time {
	y, m, d := t.In(FestivalZone).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, FestivalZone)
}

// SameLocalDay reports whether a and b fall on the same festival calendar day
func SameLocalDay(a, b time.Time) bool {
	return LocalDate(a).Equal(LocalDate(b))
}

// ParseLocalDate parses a YYYY-MM-DD date in FestivalZone
func ParseLocalDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, FestivalZone)
}
