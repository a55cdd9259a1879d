package festival

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/amaumene/festplan/internal/models"
	"github.com/amaumene/festplan/internal/utils"
)

const (
	// MaxScreenings bounds the work done on a single page
	MaxScreenings = 20
	// PlaceholderDuration is the length of a screening synthesized when a page
	// yields no times at all
	PlaceholderDuration = 120 * time.Minute

	defaultTitle      = "Unknown Film"
	maxLocationLength = 50

	memberFilmsHeading = "This screening consists of the following films:"
	eventCombinedText  = "In this combined programme"
	itemCombinedText   = "Also in this combined programme"

	NoteFirstTimeElement = "Parsed from first time element; location may be missing"
	NoteManualEntry      = "No screenings found - please add manually"
)

var (
	yearRe          = regexp.MustCompile(`^\d{4}$`)
	lengthRe        = regexp.MustCompile(`^\d+'$`)
	trailingDigitRe = regexp.MustCompile(`\d+$`)
	countriesRe     = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Countries of production[^<]*<[^>]*>([^<]+)<`),
		regexp.MustCompile(`(?i)Countries of production[^>]*>([^<]+)<`),
	}
	buyTicketRe     = regexp.MustCompile(`(?i)buy\s*ticket`)
	soldOutRe       = regexp.MustCompile(`(?i)sold\s*out`)
	pressIndustryRe = regexp.MustCompile(`(?i)press\s*(&|and|&amp;)\s*industry`)
)

// Result is everything extracted from one festival page
type Result struct {
	Title               string                `json:"title"`
	Director            string                `json:"director"`
	Country             string                `json:"country"`
	Programme           string                `json:"programme"`
	Link                string                `json:"iffrLink"`
	IsEventPage         bool                  `json:"isEventPage"`
	IsCombinedProgramme bool                  `json:"isCombinedProgramme"`
	CombinedFilms       []models.CombinedFilm `json:"combinedFilms"`
	Screenings          []models.Screening    `json:"screenings"`
}

// UsedFallback reports which fallback level produced the screenings: 0 when
// the screening list parsed, 1 for the first time element, 2 for the
// placeholder.
func (r *Result) UsedFallback() int {
	if len(r.Screenings) != 1 {
		return 0
	}
	switch {
	case r.Screenings[0].NeedsManualEntry:
		return 2
	case r.Screenings[0].Note == NoteFirstTimeElement:
		return 1
	}
	return 0
}

// ListsScreenings reports whether the screenings came from the page's
// screening list rather than a fallback
func (r *Result) ListsScreenings() bool {
	if len(r.Screenings) == 0 || r.UsedFallback() > 0 {
		return false
	}
	for _, s := range r.Screenings {
		if s.NeedsManualEntry {
			return false
		}
	}
	return true
}

// Extractor turns festival page markup into screenings. Matching rules are
// tied to the festival site's current markup.
type Extractor struct {
	baseURL       string
	titleSuffixRe *regexp.Regexp
	venues        *utils.Venues
	now           func() time.Time
	maxScreenings int
}

// Option configures an Extractor
type Option func(*Extractor)

// WithFestival sets the site used to absolutize links and the name stripped
// from page titles
func WithFestival(baseURL, name string) Option {
	return func(e *Extractor) {
		e.baseURL = strings.TrimRight(baseURL, "/")
		e.titleSuffixRe = titleSuffix(name)
	}
}

// WithVenues sets the venue table used to recognize locations
func WithVenues(venues *utils.Venues) Option {
	return func(e *Extractor) {
		e.venues = venues
	}
}

// WithClock sets the clock used for placeholder screenings
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// NewExtractor creates an extractor for the default festival
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		baseURL:       "https://iffr.com",
		titleSuffixRe: titleSuffix("IFFR"),
		venues:        utils.NewVenues(nil),
		now:           time.Now,
		maxScreenings: MaxScreenings,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func titleSuffix(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\s*\|\s*` + regexp.QuoteMeta(name) + `.*$`)
}

// IsEventPage reports whether the URL is a programme page listing several
// films under one set of showtimes
func IsEventPage(sourceURL string) bool {
	return strings.Contains(sourceURL, "/events/")
}

// Extract parses page markup. It never fails: missing data degrades to empty
// fields and at least one screening is always returned.
func (e *Extractor) Extract(html, sourceURL string) *Result {
	result := &Result{
		Link:        sourceURL,
		IsEventPage: IsEventPage(sourceURL),
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		result.Title = defaultTitle
		result.Screenings = []models.Screening{e.placeholder(sourceURL)}
		return result
	}

	result.Title = e.extractTitle(doc)
	result.Director = extractDirector(doc)
	result.Country = extractCountry(doc, html)
	result.Programme = strings.TrimSpace(doc.Find("a.absolute-link").First().Text())
	result.Screenings = e.extractScreenings(doc, sourceURL)

	combined := e.collectCombinedFilms(doc, result)
	if len(combined) > 1 {
		result.IsCombinedProgramme = true
		result.CombinedFilms = combined
	}
	result.IsCombinedProgramme = result.IsCombinedProgramme || result.IsEventPage

	if len(result.Screenings) == 0 {
		result.Screenings = []models.Screening{e.fallbackScreening(doc, sourceURL)}
	}

	return result
}

func (e *Extractor) extractTitle(doc *goquery.Document) string {
	title := ""
	doc.Find("h1").EachWithBreak(func(_ int, h1 *goquery.Selection) bool {
		class, _ := h1.Attr("class")
		if strings.Contains(class, "font-heading") {
			title = strings.TrimSpace(h1.Text())
			return false
		}
		return true
	})
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	title = strings.TrimSpace(e.titleSuffixRe.ReplaceAllString(title, ""))
	if title == "" {
		return defaultTitle
	}
	return title
}

func extractDirector(doc *goquery.Document) string {
	director := strings.TrimSpace(doc.Find(`a.underline[href*="/person/"]`).First().Text())
	if director == "" {
		director = strings.TrimSpace(doc.Find(`a[href*="/person/"]`).First().Text())
	}
	return director
}

func extractCountry(doc *goquery.Document, html string) string {
	var countries []string
	seen := make(map[string]bool)
	doc.Find("span.whitespace-nowrap").Each(func(_ int, span *goquery.Selection) {
		c := strings.TrimSpace(span.Text())
		// Drop the production year and the running time
		if c == "" || yearRe.MatchString(c) || lengthRe.MatchString(c) || seen[c] {
			return
		}
		seen[c] = true
		countries = append(countries, c)
	})
	if len(countries) > 0 {
		return strings.Join(countries, ", ")
	}

	for _, re := range countriesRe {
		if m := re.FindStringSubmatch(html); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func (e *Extractor) extractScreenings(doc *goquery.Document, sourceURL string) []models.Screening {
	items := doc.Find(`ul.flex.flex-col.gap-2, ul[class*="flex"][class*="flex-col"]`).Find("li")
	if items.Length() == 0 {
		items = doc.Find("li")
	}

	var screenings []models.Screening
	items.EachWithBreak(func(_ int, li *goquery.Selection) bool {
		if len(screenings) >= e.maxScreenings {
			return false
		}
		if s, ok := e.parseScreening(li, sourceURL); ok {
			screenings = append(screenings, s)
		}
		return true
	})
	return screenings
}

// parseScreening reads one list item. Items without a resolvable time are
// skipped.
func (e *Extractor) parseScreening(li *goquery.Selection, sourceURL string) (models.Screening, bool) {
	timeEl := li.Find("time[datetime]").First()
	if timeEl.Length() == 0 {
		return models.Screening{}, false
	}

	attr, _ := timeEl.Attr("datetime")
	start, end, ok := parseScreeningTimes(attr, strings.TrimSpace(timeEl.Text()))
	if !ok {
		return models.Screening{}, false
	}

	text := li.Text()
	screening := models.Screening{
		StartTime:        start,
		EndTime:          end,
		Location:         e.extractLocation(timeEl),
		Link:             sourceURL,
		HasQA:            strings.Contains(text, "with Q&A") || strings.Contains(text, "with Q&amp;A"),
		Available:        true,
		MemberFilmTitles: memberFilmTitles(li),
	}
	if reason := availability(li, text); reason != models.ReasonNone {
		screening.MarkUnavailable(reason)
	}
	return screening, true
}

// extractLocation takes the first span after the time element when it looks
// like a venue rather than unrelated inline text
func (e *Extractor) extractLocation(timeEl *goquery.Selection) string {
	loc := strings.TrimSpace(timeEl.NextAllFiltered("span").First().Text())
	if loc == "" || len(loc) >= maxLocationLength {
		return ""
	}
	if e.venues.HasKnownPrefix(loc) || trailingDigitRe.MatchString(loc) || len(strings.Split(loc, " ")) <= 3 {
		return loc
	}
	return ""
}

func memberFilmTitles(li *goquery.Selection) []string {
	var titles []string
	li.Find("h3").Each(func(_ int, h3 *goquery.Selection) {
		if !strings.Contains(h3.Text(), memberFilmsHeading) {
			return
		}
		h3.NextFiltered("ul").Find("li").Each(func(_ int, item *goquery.Selection) {
			if t := strings.TrimSpace(item.Text()); t != "" {
				titles = append(titles, t)
			}
		})
	})
	return titles
}

// availability classifies a screening. Press screenings are marked with a
// sideways badge; sold out counts unless a buy button precedes the notice.
func availability(li *goquery.Selection, text string) models.UnavailableReason {
	sideways := li.Find(`[style*="writing-mode: sideways-lr"]`).Length() > 0
	if sideways && pressIndustryRe.MatchString(text) {
		return models.ReasonPressIndustry
	}

	if sold := soldOutRe.FindStringIndex(text); sold != nil {
		buy := buyTicketRe.FindStringIndex(text)
		if buy == nil || sold[0] < buy[0] {
			return models.ReasonSoldOut
		}
	}
	return models.ReasonNone
}

// collectCombinedFilms unions member titles of all screenings with the
// films listed in the combined programme section, in first-seen order
func (e *Extractor) collectCombinedFilms(doc *goquery.Document, result *Result) []models.CombinedFilm {
	var films []models.CombinedFilm
	index := make(map[string]int)
	add := func(title string, link *string) {
		if i, ok := index[title]; ok {
			if link != nil {
				films[i].Link = link
			}
			return
		}
		index[title] = len(films)
		films = append(films, models.CombinedFilm{Title: title, Link: link})
	}

	for _, s := range result.Screenings {
		for _, title := range s.MemberFilmTitles {
			add(title, nil)
		}
	}

	searchText := itemCombinedText
	if result.IsEventPage {
		searchText = eventCombinedText
	}

	doc.Find("*").Each(func(_ int, el *goquery.Selection) {
		if !strings.Contains(el.Text(), searchText) {
			return
		}
		el.NextAllFiltered("ul, ol").First().Find(`a[href*="/films/"]`).Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			link := href
			if !strings.HasPrefix(href, "http") {
				link = e.baseURL + href
			}
			title := strings.TrimSpace(a.Find("h2, h3").First().Text())
			if title == "" {
				title = strings.TrimSpace(a.Text())
			}
			if title != "" && (result.IsEventPage || title != result.Title) {
				add(title, &link)
			}
		})
	})

	return films
}

// fallbackScreening is used when the screening list yielded nothing
func (e *Extractor) fallbackScreening(doc *goquery.Document, sourceURL string) models.Screening {
	timeEl := doc.Find("time[datetime]").First()
	if timeEl.Length() > 0 {
		attr, _ := timeEl.Attr("datetime")
		date, start, ok := parseDatetimeAttr(attr)
		hour, minute, found := parseEndOnly(strings.TrimSpace(timeEl.Text()))
		if ok && found {
			end := date.at(hour, minute)
			if !end.After(start) {
				end = end.AddDate(0, 0, 1)
			}
			return models.Screening{
				StartTime: start.UTC(),
				EndTime:   end.UTC(),
				Link:      sourceURL,
				Available: true,
				Note:      NoteFirstTimeElement,
			}
		}
	}
	return e.placeholder(sourceURL)
}

func (e *Extractor) placeholder(sourceURL string) models.Screening {
	start := e.now().UTC().Truncate(time.Second)
	return models.Screening{
		StartTime:        start,
		EndTime:          start.Add(PlaceholderDuration),
		Link:             sourceURL,
		Available:        true,
		Note:             NoteManualEntry,
		NeedsManualEntry: true,
	}
}
