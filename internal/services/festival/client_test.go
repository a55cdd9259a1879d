package festival

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amaumene/festplan/internal/models"
	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestClientParseUsesCache(t *testing.T) {
	var requests int32
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, itemPageHTML)
	}))
	defer server.Close()

	client := NewClient(NewExtractor(), newTestLogger(), WithHTTPClient(server.Client()), WithCacheTTL(time.Minute))
	pageURL := server.URL + "/en/2026/films/some-film"

	result, err := client.Parse(context.Background(), pageURL)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.Title != "Some Film" || len(result.Screenings) != 3 {
		t.Fatalf("Unexpected result: %+v", result)
	}
	if !strings.Contains(userAgent, "Mozilla") {
		t.Errorf("Expected a browser-like User-Agent, got %q", userAgent)
	}

	// Mutating a returned result must not leak into the cache
	result.Screenings[0].Location = "changed"

	cached, err := client.Parse(context.Background(), pageURL)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if atomic.LoadInt32(&requests) != 1 {
		t.Errorf("Expected cached result, got %d requests", requests)
	}
	if cached.Screenings[0].Location != "KINO 2" {
		t.Errorf("Cached result was modified: %q", cached.Screenings[0].Location)
	}

	if _, err := client.Refresh(context.Background(), pageURL); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if atomic.LoadInt32(&requests) != 2 {
		t.Errorf("Expected refresh to bypass cache, got %d requests", requests)
	}
}

func TestClientFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(NewExtractor(), newTestLogger(), WithHTTPClient(server.Client()), WithCacheTTL(0))
	_, err := client.Parse(context.Background(), server.URL+"/missing")
	if !errors.Is(err, models.ErrFetch) {
		t.Fatalf("Expected fetch error, got %v", err)
	}
}

func TestClientRejectsInvalidURL(t *testing.T) {
	client := NewClient(NewExtractor(), newTestLogger())

	for _, u := range []string{"", "not a url", "ftp://iffr.com/x"} {
		if _, err := client.Parse(context.Background(), u); !errors.Is(err, models.ErrValidation) {
			t.Errorf("Expected validation error for %q, got %v", u, err)
		}
	}
}
