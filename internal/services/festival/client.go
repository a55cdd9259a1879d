package festival

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/amaumene/festplan/internal/models"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	maxPageBytes    = 5 << 20
	defaultCacheTTL = 10 * time.Minute
)

// Client fetches festival pages and extracts screenings from them
type Client struct {
	httpClient *http.Client
	extractor  *Extractor
	cache      *cache.Cache
	tracer     trace.Tracer
	logger     *logrus.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client, mostly for tests
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithCacheTTL sets how long parsed pages are reused. Zero disables caching.
func WithCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		if ttl <= 0 {
			c.cache = nil
			return
		}
		c.cache = cache.New(ttl, 2*ttl)
	}
}

// NewClient creates a new festival page client
func NewClient(extractor *Extractor, logger *logrus.Logger, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		extractor:  extractor,
		cache:      cache.New(defaultCacheTTL, 2*defaultCacheTTL),
		tracer:     otel.Tracer("github.com/amaumene/festplan/internal/services/festival"),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Parse returns the extraction for a page, reusing a recent result
func (c *Client) Parse(ctx context.Context, pageURL string) (*Result, error) {
	if c.cache != nil {
		if cached, found := c.cache.Get(pageURL); found {
			parseCacheHits.Inc()
			c.logger.WithField("url", pageURL).Debug("Serving parsed page from cache")
			return cached.(*Result).Clone(), nil
		}
	}
	return c.Refresh(ctx, pageURL)
}

// Refresh fetches and extracts a page, bypassing the cache. Used when fresh
// availability matters.
func (c *Client) Refresh(ctx context.Context, pageURL string) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "festival.Parse", trace.WithAttributes(attribute.String("url", pageURL)))
	defer span.End()

	html, err := c.Fetch(ctx, pageURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result := c.extractor.Extract(html, pageURL)
	span.SetAttributes(
		attribute.Int("screenings", len(result.Screenings)),
		attribute.Bool("combined", result.IsCombinedProgramme),
	)

	if level := result.UsedFallback(); level > 0 {
		extractionFallbacks.WithLabelValues(strconv.Itoa(level)).Inc()
		c.logger.WithFields(logrus.Fields{
			"url":   pageURL,
			"level": level,
		}).Warn("No screening list found, using fallback")
	} else {
		screeningsExtracted.Add(float64(len(result.Screenings)))
	}

	c.logger.WithFields(logrus.Fields{
		"url":        pageURL,
		"title":      result.Title,
		"screenings": len(result.Screenings),
		"combined":   result.IsCombinedProgramme,
	}).Info("Parsed festival page")

	if c.cache != nil {
		c.cache.SetDefault(pageURL, result.Clone())
	}
	return result, nil
}

// Fetch downloads a page with browser-like headers
func (c *Client) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := ValidateURL(pageURL); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en,nl;q=0.8")

	c.logger.WithField("url", pageURL).Debug("Fetching festival page")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		pagesFetched.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: %v", models.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		pagesFetched.WithLabelValues("status").Inc()
		return "", fmt.Errorf("%w: failed to fetch festival page: %d", models.ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		pagesFetched.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: failed to read body: %v", models.ErrFetch, err)
	}

	pagesFetched.WithLabelValues("ok").Inc()
	return string(body), nil
}

// ValidateURL rejects empty or non-HTTP links before any request is made
func ValidateURL(pageURL string) error {
	if pageURL == "" {
		return fmt.Errorf("%w: missing URL", models.ErrValidation)
	}
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: invalid URL %q", models.ErrValidation, pageURL)
	}
	return nil
}

// Clone returns a deep copy of the result
func (r *Result) Clone() *Result {
	c := *r
	if r.CombinedFilms != nil {
		c.CombinedFilms = append([]models.CombinedFilm(nil), r.CombinedFilms...)
	}
	if r.Screenings != nil {
		c.Screenings = make([]models.Screening, len(r.Screenings))
		for i, s := range r.Screenings {
			s.MemberFilmTitles = append([]string(nil), s.MemberFilmTitles...)
			c.Screenings[i] = s
		}
	}
	return &c
}
