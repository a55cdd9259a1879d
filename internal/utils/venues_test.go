package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestShortcode(t *testing.T) {
	venues := NewVenues(nil)

	tests := []struct {
		location string
		want     string
	}{
		{"", ""},
		{"KINO 2", "KINO2"},
		{"LantarenVenster 3", "LV3"},
		{"Pathé Schouwburgplein 5", "PS5"},
		{"Pathe Schouwburgplein 5", "PS5"},
		{"de Doelen & de Doelen Studios", "DD"},
		{"Lantaren Venster 2", "LV2"},
		{"WORM CS & WORM UBIK", "WORM"},
		{"Stationshal Rotterdam Centraal", "SRC"},
		{"Somewhere Else", "SO"},
		{"Online 12", "ON12"},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			if got := venues.Shortcode(tt.location); got != tt.want {
				t.Errorf("Shortcode(%q) = %q, want %q", tt.location, got, tt.want)
			}
		})
	}
}

func TestHasKnownPrefix(t *testing.T) {
	venues := NewVenues(nil)

	if !venues.HasKnownPrefix("Cinerama Filmtheater 4") {
		t.Errorf("Expected Cinerama to be a known venue")
	}
	if !venues.HasKnownPrefix("Pathe Schouwburgplein 1") {
		t.Errorf("Expected accent-folded Pathé to be a known venue")
	}
	if venues.HasKnownPrefix("Buy tickets now") {
		t.Errorf("Did not expect 'Buy tickets now' to be a venue")
	}
}

func TestLoadVenues(t *testing.T) {
	dir := t.TempDir()

	// Missing file falls back to defaults
	venues, err := LoadVenues(filepath.Join(dir, "missing.txt"))
	if err != nil {
		t.Fatalf("LoadVenues failed: %v", err)
	}
	if got := venues.Shortcode("KINO 1"); got != "KINO1" {
		t.Errorf("Expected default venues, got %q", got)
	}

	path := filepath.Join(dir, "venues.txt")
	content := "# extra venues\nHet Nieuwe Huis = HNH\nZaal Zuid\n\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write venues file: %v", err)
	}

	venues, err = LoadVenues(path)
	if err != nil {
		t.Fatalf("LoadVenues failed: %v", err)
	}
	if got := venues.Shortcode("Het Nieuwe Huis 2"); got != "HNH2" {
		t.Errorf("Expected HNH2, got %q", got)
	}
	if got := venues.Shortcode("Zaal Zuid"); got != "ZA" {
		t.Errorf("Expected ZA, got %q", got)
	}
	if !venues.HasKnownPrefix("Het Nieuwe Huis") {
		t.Errorf("Expected loaded venue to be a known prefix")
	}
	if got := venues.Shortcode("Brutus"); got != "BR" {
		t.Errorf("Expected defaults to remain, got %q", got)
	}
}
