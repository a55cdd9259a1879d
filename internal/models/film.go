package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// FilmID identifies a film. Older records carry numeric millisecond ids, so
// the JSON form accepts both numbers and strings and ids compare by string.
type FilmID string

// UnmarshalJSON accepts a JSON string, number or null
func (id *FilmID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FilmID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("film id must be a string or number: %w", err)
	}
	*id = FilmID(n.String())
	return nil
}

// String returns the id's string form
func (id FilmID) String() string {
	return string(id)
}

// Equal compares two ids by their string representation
func (id FilmID) Equal(other FilmID) bool {
	return string(id) == string(other)
}

// FilmIDFromInt builds an id from a legacy numeric id
func FilmIDFromInt(n int64) FilmID {
	return FilmID(strconv.FormatInt(n, 10))
}

// MarshalJSON encodes an empty reason as null
func (r UnavailableReason) MarshalJSON() ([]byte, error) {
	if r == ReasonNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(r))
}

// UnmarshalJSON decodes null as the empty reason
func (r *UnavailableReason) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = ReasonNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = UnavailableReason(s)
	return nil
}

// Screening is one concrete showing of a film or combined programme
type Screening struct {
	StartTime         time.Time         `json:"startTime"`
	EndTime           time.Time         `json:"endTime"`
	Location          string            `json:"location"`
	Link              string            `json:"link,omitempty"`
	HasQA             bool              `json:"hasQA"`
	Available         bool              `json:"available"`
	UnavailableReason UnavailableReason `json:"unavailableReason"`
	MemberFilmTitles  []string          `json:"films,omitempty"`
	Note              string            `json:"note,omitempty"`
	NeedsManualEntry  bool              `json:"needsManualEntry,omitempty"`
}

// UnmarshalJSON defaults availability for entries stored before it was tracked
func (s *Screening) UnmarshalJSON(data []byte) error {
	type alias Screening
	aux := struct {
		*alias
		Available *bool `json:"available"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Available = aux.Available == nil || *aux.Available
	s.Normalize()
	return nil
}

// Normalize keeps Available and UnavailableReason consistent
func (s *Screening) Normalize() {
	if s.Available {
		s.UnavailableReason = ReasonNone
		return
	}
	if s.UnavailableReason == ReasonNone {
		s.UnavailableReason = ReasonNotAvailable
	}
}

// MarkUnavailable flags the screening with a reason
func (s *Screening) MarkUnavailable(reason UnavailableReason) {
	s.Available = false
	s.UnavailableReason = reason
	s.Normalize()
}

// CombinedFilm is one title inside a combined programme
type CombinedFilm struct {
	Title string  `json:"title"`
	Link  *string `json:"link"`
}

// Film is a schedulable or favorited entry
type Film struct {
	ID                  FilmID         `json:"id"`
	Title               string         `json:"title"`
	Director            string         `json:"director"`
	Country             string         `json:"country"`
	Programme           string         `json:"programme"`
	StartTime           *time.Time     `json:"startTime"`
	EndTime             *time.Time     `json:"endTime"`
	Location            string         `json:"location"`
	ExternalLink        string         `json:"iffrLink"`
	Moderating          bool           `json:"moderating"`
	Favorited           bool           `json:"favorited"`
	Ticket              bool           `json:"ticket"`
	Unavailable         bool           `json:"unavailable"`
	HasQA               bool           `json:"hasQA"`
	Screenings          []Screening    `json:"screenings"`
	IsCombinedProgramme bool           `json:"isCombinedProgramme"`
	CombinedFilms       []CombinedFilm `json:"combinedFilms"`
	NotionPageID        string         `json:"notionPageId,omitempty"`
	Notes               string         `json:"notes,omitempty"`
}

// IsScheduled reports whether the film occupies calendar time
func (f *Film) IsScheduled() bool {
	return f.StartTime != nil && f.EndTime != nil
}

// SetSchedule places the film at [start, end)
func (f *Film) SetSchedule(start, end time.Time) {
	s, e := start, end
	f.StartTime = &s
	f.EndTime = &e
}

// ClearSchedule turns the film back into an unscheduled favorite entry
func (f *Film) ClearSchedule() {
	f.StartTime = nil
	f.EndTime = nil
}

// DurationMinutes returns the scheduled length rounded to whole minutes
func (f *Film) DurationMinutes() int {
	if !f.IsScheduled() {
		return 0
	}
	return int(math.Round(f.EndTime.Sub(*f.StartTime).Minutes()))
}

// Validate checks the invariants every stored film must hold
func (f *Film) Validate() error {
	if f.Title == "" {
		return fmt.Errorf("%w: film title is required", ErrValidation)
	}
	if (f.StartTime == nil) != (f.EndTime == nil) {
		return fmt.Errorf("%w: start and end time must be set together", ErrValidation)
	}
	if f.IsScheduled() && !f.EndTime.After(*f.StartTime) {
		return fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}
	return nil
}

// Clone returns a deep copy
func (f *Film) Clone() *Film {
	c := *f
	if f.StartTime != nil {
		t := *f.StartTime
		c.StartTime = &t
	}
	if f.EndTime != nil {
		t := *f.EndTime
		c.EndTime = &t
	}
	if f.Screenings != nil {
		c.Screenings = make([]Screening, len(f.Screenings))
		for i, s := range f.Screenings {
			s.MemberFilmTitles = append([]string(nil), s.MemberFilmTitles...)
			c.Screenings[i] = s
		}
	}
	if f.CombinedFilms != nil {
		c.CombinedFilms = make([]CombinedFilm, len(f.CombinedFilms))
		for i, cf := range f.CombinedFilms {
			if cf.Link != nil {
				link := *cf.Link
				cf.Link = &link
			}
			c.CombinedFilms[i] = cf
		}
	}
	return &c
}

// Public returns the copy shown to other people. Blocked time hides what it
// is blocked for.
func (f *Film) Public() *Film {
	c := f.Clone()
	if c.Unavailable {
		c.Director = ""
		c.Country = ""
		c.Programme = ""
		c.IsCombinedProgramme = false
		c.CombinedFilms = nil
	}
	return c
}

// HasCombinedTitle reports whether title is already listed in CombinedFilms
func (f *Film) HasCombinedTitle(title string) bool {
	for _, cf := range f.CombinedFilms {
		if cf.Title == title {
			return true
		}
	}
	return false
}

// CloneFilms deep-copies a film list
func CloneFilms(films []*Film) []*Film {
	if films == nil {
		return nil
	}
	out := make([]*Film, len(films))
	for i, f := range films {
		out[i] = f.Clone()
	}
	return out
}
