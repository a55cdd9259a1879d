package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amaumene/festplan/internal/models"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestShareEncodeDecode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	schedule := `{"userName":"Ana","films":[{"title":"Blue Hour","startTime":"2026-01-31T18:45:00Z","endTime":"2026-01-31T20:30:00Z","location":"Pathé 3","ticket":true}]}`
	if err := os.WriteFile(path, []byte(schedule), 0o644); err != nil {
		t.Fatalf("Failed to write schedule: %v", err)
	}

	blob, err := runCmd(t, "share", "encode", path)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	blob = strings.TrimSpace(blob)
	if blob == "" {
		t.Fatal("Expected a blob")
	}

	out, err := runCmd(t, "share", "decode", blob)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	var decoded models.SharedSchedule
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("Expected schedule JSON, got %q", out)
	}
	if decoded.OwnerName != "Ana" || len(decoded.Films) != 1 {
		t.Fatalf("Unexpected schedule %+v", decoded)
	}
	if f := decoded.Films[0]; f.Title != "Blue Hour" || !f.Ticket || !f.IsScheduled() {
		t.Errorf("Unexpected film %+v", f)
	}
}

func TestShareDecodeInvalid(t *testing.T) {
	if _, err := runCmd(t, "share", "decode", "not a link"); err == nil {
		t.Fatal("Expected an invalid blob to fail")
	}
}
