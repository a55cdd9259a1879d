package share

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/amaumene/festplan/internal/models"
	"github.com/google/uuid"
)

// ErrInvalidShareLink is returned for any static link that cannot be decoded
var ErrInvalidShareLink = fmt.Errorf("invalid share link: %w", models.ErrDecode)

type compactSchedule struct {
	Name  string        `json:"n"`
	Films []compactFilm `json:"f"`
}

type compactFilm struct {
	Title         string                `json:"t"`
	Director      string                `json:"d,omitempty"`
	Country       string                `json:"c,omitempty"`
	Programme     string                `json:"p,omitempty"`
	Location      string                `json:"l,omitempty"`
	StartTime     *time.Time            `json:"st"`
	EndTime       *time.Time            `json:"et"`
	Room          string                `json:"r,omitempty"`
	Link          string                `json:"link,omitempty"`
	Favorited     bool                  `json:"fav,omitempty"`
	Ticket        bool                  `json:"tick,omitempty"`
	Moderating    bool                  `json:"mod,omitempty"`
	HasQA         bool                  `json:"qa,omitempty"`
	Screenings    []models.Screening    `json:"scr"`
	Unavailable   bool                  `json:"un,omitempty"`
	Combined      bool                  `json:"cp,omitempty"`
	CombinedFilms []models.CombinedFilm `json:"cf,omitempty"`
	Notes         string                `json:"no,omitempty"`
}

// EncodeCompact packs a schedule into the static link form: short-key JSON,
// percent-encoded like encodeURIComponent, then base64
func EncodeCompact(schedule *models.SharedSchedule) (string, error) {
	compact := compactSchedule{
		Name:  schedule.OwnerName,
		Films: make([]compactFilm, 0, len(schedule.Films)),
	}
	for _, f := range schedule.Films {
		screenings := f.Screenings
		if screenings == nil {
			screenings = []models.Screening{}
		}
		compact.Films = append(compact.Films, compactFilm{
			Title:         f.Title,
			Director:      f.Director,
			Country:       f.Country,
			Programme:     f.Programme,
			Location:      f.Location,
			StartTime:     f.StartTime,
			EndTime:       f.EndTime,
			Link:          f.ExternalLink,
			Favorited:     f.Favorited,
			Ticket:        f.Ticket,
			Moderating:    f.Moderating,
			HasQA:         f.HasQA,
			Screenings:    screenings,
			Unavailable:   f.Unavailable,
			Combined:      f.IsCombinedProgramme,
			CombinedFilms: f.CombinedFilms,
			Notes:         f.Notes,
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(compact); err != nil {
		return "", fmt.Errorf("failed to encode schedule: %w", err)
	}
	data := bytes.TrimRight(buf.Bytes(), "\n")

	return base64.StdEncoding.EncodeToString([]byte(encodeURIComponent(string(data)))), nil
}

// DecodeCompact unpacks a static link. Films get fresh ids and every
// omitted field its default.
func DecodeCompact(encoded string) (*models.SharedSchedule, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, ErrInvalidShareLink
	}
	// The blob may still carry the query string's own escaping
	if strings.Contains(encoded, "%") {
		unescaped, err := url.PathUnescape(encoded)
		if err != nil {
			return nil, ErrInvalidShareLink
		}
		encoded = unescaped
	}
	// A '+' in an unescaped query string arrives as a space
	encoded = strings.ReplaceAll(encoded, " ", "+")

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return nil, ErrInvalidShareLink
		}
	}

	text, err := url.PathUnescape(string(raw))
	if err != nil {
		return nil, ErrInvalidShareLink
	}

	var compact compactSchedule
	if err := json.Unmarshal([]byte(text), &compact); err != nil {
		return nil, ErrInvalidShareLink
	}
	if compact.Films == nil {
		return nil, ErrInvalidShareLink
	}

	schedule := &models.SharedSchedule{
		OwnerName: compact.Name,
		Films:     make([]*models.Film, 0, len(compact.Films)),
	}
	for _, c := range compact.Films {
		if strings.TrimSpace(c.Title) == "" {
			continue
		}
		schedule.Films = append(schedule.Films, expand(c))
	}
	return schedule, nil
}

func expand(c compactFilm) *models.Film {
	f := &models.Film{
		ID:                  models.FilmID(uuid.NewString()),
		Title:               c.Title,
		Director:            c.Director,
		Country:             c.Country,
		Programme:           c.Programme,
		Location:            c.Location,
		ExternalLink:        c.Link,
		Favorited:           c.Favorited,
		Ticket:              c.Ticket,
		Moderating:          c.Moderating,
		HasQA:               c.HasQA,
		Screenings:          c.Screenings,
		Unavailable:         c.Unavailable,
		IsCombinedProgramme: c.Combined,
		CombinedFilms:       c.CombinedFilms,
		Notes:               c.Notes,
	}
	if c.Room != "" && !strings.HasSuffix(f.Location, c.Room) {
		f.Location = strings.TrimSpace(f.Location + " " + c.Room)
	}
	if f.Screenings == nil {
		f.Screenings = []models.Screening{}
	}
	if f.CombinedFilms == nil {
		f.CombinedFilms = []models.CombinedFilm{}
	}
	if c.StartTime != nil && c.EndTime != nil && c.EndTime.After(*c.StartTime) {
		f.SetSchedule(*c.StartTime, *c.EndTime)
	}
	return f
}

// encodeURIComponent escapes everything except A-Z a-z 0-9 - _ . ! ~ * ' ( )
func encodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
