package notion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amaumene/festplan/internal/models"
	"github.com/sirupsen/logrus"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewClient(logger, WithBaseURL(server.URL), WithHTTPClient(server.Client()))
}

var testCreds = Credentials{APIKey: "secret", DatabaseID: "db-1"}

func TestQueryDatabaseFollowsCursor(t *testing.T) {
	var cursors []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/databases/db-1/query" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Unexpected Authorization header %q", got)
		}
		if got := r.Header.Get("Notion-Version"); got != apiVersion {
			t.Errorf("Unexpected Notion-Version header %q", got)
		}

		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.PageSize != 100 {
			t.Errorf("Expected page_size 100, got %d", req.PageSize)
		}
		cursors = append(cursors, req.StartCursor)

		if req.StartCursor == "" {
			io.WriteString(w, `{"results":[{"id":"aaaa-bbbb","properties":{"Title":{"type":"title","title":[{"plain_text":"First"}]}}}],"has_more":true,"next_cursor":"c2"}`)
			return
		}
		io.WriteString(w, `{"results":[{"id":"cccc-dddd","properties":{"Title":{"type":"title","title":[{"plain_text":"Second"}]}}}],"has_more":false,"next_cursor":null}`)
	})

	pages, err := client.QueryDatabase(context.Background(), testCreds)
	if err != nil {
		t.Fatalf("QueryDatabase failed: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(pages))
	}
	if len(cursors) != 2 || cursors[1] != "c2" {
		t.Errorf("Expected second request with cursor c2, got %v", cursors)
	}
	if got := pages[1].Properties["Title"].PlainText(); got != "Second" {
		t.Errorf("Expected title Second, got %q", got)
	}
}

func TestQueryDatabaseRequiresCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("No request expected")
	})
	_, err := client.QueryDatabase(context.Background(), Credentials{APIKey: "secret"})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("Expected validation error, got %v", err)
	}
}

func TestAPIErrorSurfacesRemoteMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"object":"error","status":401,"code":"unauthorized","message":"API token is invalid."}`)
	})

	err := client.TestConnection(context.Background(), testCreds)
	if err == nil {
		t.Fatal("Expected an error")
	}
	if !errors.Is(err, models.ErrRemoteSync) {
		t.Errorf("Expected remote sync error, got %v", err)
	}
	if StatusCode(err) != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", StatusCode(err))
	}
	if !strings.Contains(err.Error(), "API token is invalid.") {
		t.Errorf("Expected remote message in %q", err.Error())
	}
}

func TestCreatePageBody(t *testing.T) {
	var body map[string]json.RawMessage
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/pages" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		io.WriteString(w, `{"id":"1234-5678","properties":{}}`)
	})

	start := time.Date(2026, 1, 31, 18, 45, 0, 0, time.UTC)
	page, err := client.CreatePage(context.Background(), testCreds, map[string]Property{
		"Title":      TitleProperty("Some Film"),
		"Start Time": DateProperty(&start),
		"Ticket":     CheckboxProperty(true),
	})
	if err != nil {
		t.Fatalf("CreatePage failed: %v", err)
	}
	if page.ID != "1234-5678" {
		t.Errorf("Unexpected page id %q", page.ID)
	}
	if got := string(body["parent"]); got != `{"database_id":"db-1"}` {
		t.Errorf("Unexpected parent %s", got)
	}

	var props map[string]map[string]json.RawMessage
	if err := json.Unmarshal(body["properties"], &props); err != nil {
		t.Fatalf("Failed to decode properties: %v", err)
	}
	if got := string(props["Start Time"]["date"]); got != `{"start":"2026-01-31T18:45:00Z"}` {
		t.Errorf("Unexpected date payload %s", got)
	}
	if got := string(props["Ticket"]["checkbox"]); got != "true" {
		t.Errorf("Unexpected checkbox payload %s", got)
	}
}

func TestUpdatePageClearsDate(t *testing.T) {
	var raw string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/v1/pages/page-1" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		raw = string(data)
		io.WriteString(w, `{"id":"page-1","properties":{}}`)
	})

	_, err := client.UpdatePage(context.Background(), "secret", "page-1", map[string]Property{
		"Start Time": DateProperty(nil),
	})
	if err != nil {
		t.Fatalf("UpdatePage failed: %v", err)
	}
	if raw != `{"properties":{"Start Time":{"date":null}}}` {
		t.Errorf("Unexpected body %s", raw)
	}
}

func TestArchivePage(t *testing.T) {
	var raw string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		raw = string(data)
		io.WriteString(w, `{"id":"page-1","archived":true}`)
	})

	if err := client.ArchivePage(context.Background(), "secret", "page-1"); err != nil {
		t.Fatalf("ArchivePage failed: %v", err)
	}
	if raw != `{"archived":true}` {
		t.Errorf("Unexpected body %s", raw)
	}

	if err := client.ArchivePage(context.Background(), "secret", ""); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected validation error for missing page, got %v", err)
	}
}

func TestRichTextChunking(t *testing.T) {
	long := strings.Repeat("a", maxTextLength+10)
	prop := RichTextProperty(long)
	if len(prop.RichText) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(prop.RichText))
	}
	if prop.PlainText() != long {
		t.Error("Chunks do not reassemble to the original text")
	}
}

func TestPageFlatten(t *testing.T) {
	var page Page
	data := `{"id":"ab-cd","properties":{
		"Title":{"type":"title","title":[{"plain_text":"Some "},{"plain_text":"Film"}]},
		"IFFR Link":{"type":"url","url":null},
		"Start Time":{"type":"date","date":{"start":"2026-01-31T19:45:00.000+01:00"}},
		"End Time":{"type":"date","date":null},
		"Ticket":{"type":"checkbox","checkbox":true}
	}}`
	if err := json.Unmarshal([]byte(data), &page); err != nil {
		t.Fatalf("Failed to decode page: %v", err)
	}

	bag := page.Flatten()
	if bag["id"] != "ab-cd" {
		t.Errorf("Expected id ab-cd, got %v", bag["id"])
	}
	if bag["Title"] != "Some Film" {
		t.Errorf("Expected joined title, got %v", bag["Title"])
	}
	if bag["IFFR Link"] != "" {
		t.Errorf("Expected empty link, got %v", bag["IFFR Link"])
	}
	if bag["Start Time"] != "2026-01-31T19:45:00.000+01:00" {
		t.Errorf("Unexpected start %v", bag["Start Time"])
	}
	if bag["End Time"] != nil {
		t.Errorf("Expected nil end, got %v", bag["End Time"])
	}
	if bag["Ticket"] != true {
		t.Errorf("Expected ticket true, got %v", bag["Ticket"])
	}
}
