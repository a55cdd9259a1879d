package mapper

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/amaumene/festplan/internal/models"
	"github.com/amaumene/festplan/internal/services/notion"
	"github.com/sirupsen/logrus"
)

// Record is a flat property bag from an external store
type Record map[string]interface{}

// Remote property names
const (
	PropTitle       = "Title"
	PropDirector    = "Director"
	PropCountry     = "Country"
	PropProgramme   = "Programme"
	PropStartTime   = "Start Time"
	PropEndTime     = "End Time"
	PropLocation    = "Location"
	PropLink        = "IFFR Link"
	PropFavorited   = "Favorited"
	PropTicket      = "Ticket"
	PropModerating  = "Moderating"
	PropQA          = "Q&A"
	PropUnavailable = "Unavailable"
	PropScreenings  = "Screenings"
	PropCombined    = "Combined Programme"
	PropNotes       = "Notes"
)

var (
	titleKeys       = []string{"Title", "title", "Name", "name"}
	directorKeys    = []string{"Director", "director"}
	countryKeys     = []string{"Country", "country"}
	programmeKeys   = []string{"Programme", "programme"}
	startKeys       = []string{"Start Time", "StartTime", "startTime"}
	endKeys         = []string{"End Time", "EndTime", "endTime"}
	locationKeys    = []string{"Location", "location"}
	linkKeys        = []string{"IFFR Link", "IFFRLink", "iffrLink", "Link", "link"}
	favoritedKeys   = []string{"Favorited", "favorited"}
	ticketKeys      = []string{"Ticket", "ticket"}
	moderatingKeys  = []string{"Moderating", "moderating"}
	qaKeys          = []string{"Q&A", "hasQA", "HasQA"}
	unavailableKeys = []string{"Unavailable", "unavailable"}
	screeningsKeys  = []string{"Screenings", "screenings"}
	combinedKeys    = []string{"Combined Programme", "CombinedProgramme", "combinedProgramme"}
	notesKeys       = []string{"Notes", "notes"}
)

// lookup returns the value under the first present key variant
func (r Record) lookup(keys []string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (r Record) text(keys []string) string {
	v, ok := r.lookup(keys)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func (r Record) checkbox(keys []string) bool {
	v, ok := r.lookup(keys)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	}
	return false
}

func (r Record) date(keys []string) *time.Time {
	s := r.text(keys)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = models.ParseLocalDate(s)
		if err != nil {
			return nil
		}
	}
	t = t.UTC()
	return &t
}

// MapExternalToFilm converts a property bag into a film. Records without a
// title are dropped.
func MapExternalToFilm(record Record, logger *logrus.Logger) (*models.Film, bool) {
	title := record.text(titleKeys)
	if title == "" {
		return nil, false
	}

	pageID, _ := record["id"].(string)
	film := &models.Film{
		ID:           models.FilmID(strings.ReplaceAll(pageID, "-", "")),
		NotionPageID: pageID,
		Title:        title,
		Director:     record.text(directorKeys),
		Country:      record.text(countryKeys),
		Programme:    record.text(programmeKeys),
		Location:     record.text(locationKeys),
		ExternalLink: record.text(linkKeys),
		Favorited:    record.checkbox(favoritedKeys),
		Ticket:       record.checkbox(ticketKeys),
		Moderating:   record.checkbox(moderatingKeys),
		HasQA:        record.checkbox(qaKeys),
		Unavailable:  record.checkbox(unavailableKeys),
		Notes:        record.text(notesKeys),
		Screenings:   MapScreeningsJSON(record.text(screeningsKeys), logger),
	}

	start, end := record.date(startKeys), record.date(endKeys)
	if start != nil && end != nil && end.After(*start) {
		film.SetSchedule(*start, *end)
	} else if start != nil || end != nil {
		logger.WithField("title", title).Warn("Ignoring incomplete schedule from remote record")
	}

	film.IsCombinedProgramme, film.CombinedFilms = MapCombinedProgrammeJSON(record.text(combinedKeys), logger)

	return film, true
}

// MapScreeningsJSON parses stored screenings. Text that does not parse is
// logged and treated as no screenings.
func MapScreeningsJSON(text string, logger *logrus.Logger) []models.Screening {
	screenings := []models.Screening{}
	if strings.TrimSpace(text) == "" {
		return screenings
	}
	if err := json.Unmarshal([]byte(text), &screenings); err != nil {
		logger.WithError(err).Warn("Failed to parse stored screenings")
		return []models.Screening{}
	}
	return screenings
}

type combinedProgramme struct {
	IsCombinedProgramme bool                  `json:"isCombinedProgramme"`
	CombinedFilms       []models.CombinedFilm `json:"combinedFilms"`
}

// MapCombinedProgrammeJSON parses stored combined programme data. Plain
// text is read as a boolean flag.
func MapCombinedProgrammeJSON(text string, logger *logrus.Logger) (bool, []models.CombinedFilm) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, []models.CombinedFilm{}
	}
	var data combinedProgramme
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		logger.WithField("text", text).Debug("Combined programme is not JSON, reading as flag")
		return strings.EqualFold(text, "true"), []models.CombinedFilm{}
	}
	if data.CombinedFilms == nil {
		data.CombinedFilms = []models.CombinedFilm{}
	}
	return data.IsCombinedProgramme, data.CombinedFilms
}

// MapPages converts remote pages into films, skipping untitled and archived
// rows
func MapPages(pages []notion.Page, logger *logrus.Logger) []*models.Film {
	films := make([]*models.Film, 0, len(pages))
	for i := range pages {
		if pages[i].Archived {
			continue
		}
		if film, ok := MapExternalToFilm(pages[i].Flatten(), logger); ok {
			films = append(films, film)
		}
	}
	return films
}

// FilmToProperties builds the remote create/update payload for a film
func FilmToProperties(film *models.Film) (map[string]notion.Property, error) {
	props := map[string]notion.Property{
		PropTitle:       notion.TitleProperty(film.Title),
		PropDirector:    notion.RichTextProperty(film.Director),
		PropCountry:     notion.RichTextProperty(film.Country),
		PropProgramme:   notion.RichTextProperty(film.Programme),
		PropLocation:    notion.RichTextProperty(film.Location),
		PropLink:        notion.URLProperty(film.ExternalLink),
		PropStartTime:   notion.DateProperty(film.StartTime),
		PropEndTime:     notion.DateProperty(film.EndTime),
		PropFavorited:   notion.CheckboxProperty(film.Favorited),
		PropTicket:      notion.CheckboxProperty(film.Ticket),
		PropModerating:  notion.CheckboxProperty(film.Moderating),
		PropQA:          notion.CheckboxProperty(film.HasQA),
		PropUnavailable: notion.CheckboxProperty(film.Unavailable),
		PropNotes:       notion.RichTextProperty(film.Notes),
	}

	if len(film.Screenings) > 0 {
		data, err := json.Marshal(film.Screenings)
		if err != nil {
			return nil, err
		}
		props[PropScreenings] = notion.RichTextProperty(string(data))
	}

	if film.IsCombinedProgramme && len(film.CombinedFilms) > 0 {
		data, err := json.Marshal(combinedProgramme{
			IsCombinedProgramme: true,
			CombinedFilms:       film.CombinedFilms,
		})
		if err != nil {
			return nil, err
		}
		props[PropCombined] = notion.RichTextProperty(string(data))
	}

	return props, nil
}

// StatusProperties builds the single-checkbox update for a status toggle
func StatusProperties(status models.StatusType, value bool) map[string]notion.Property {
	name := map[models.StatusType]string{
		models.StatusFavorited:  PropFavorited,
		models.StatusTicket:     PropTicket,
		models.StatusModerating: PropModerating,
	}[status]
	if name == "" {
		return nil
	}
	return map[string]notion.Property{name: notion.CheckboxProperty(value)}
}
