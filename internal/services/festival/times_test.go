package festival

import (
	"testing"
	"time"
)

func TestParseScreeningTimes(t *testing.T) {
	tests := []struct {
		name      string
		attr      string
		text      string
		wantStart string
		wantEnd   string
		wantOK    bool
	}{
		{
			name:      "attribute with dutch long form",
			attr:      "2026-01-31 19:45",
			text:      "zaterdag 31 januari 2026 | 19.45 - 22.57",
			wantStart: "2026-01-31T18:45:00Z",
			wantEnd:   "2026-01-31T21:57:00Z",
			wantOK:    true,
		},
		{
			name:      "english long form without attribute",
			attr:      "",
			text:      "Saturday 31 January 2026 | 18.30 - 20.03",
			wantStart: "2026-01-31T17:30:00Z",
			wantEnd:   "2026-01-31T19:03:00Z",
			wantOK:    true,
		},
		{
			name:   "attribute with bare range",
			attr:   "2026-02-01 9:15",
			text:   "| 09.15 - 10.45",
			wantOK: false,
		},
		{
			name:      "attribute with short range",
			attr:      "2026-02-01 09:15",
			text:      "Sun | 09.15 - 10.45",
			wantStart: "2026-02-01T08:15:00Z",
			wantEnd:   "2026-02-01T09:45:00Z",
			wantOK:    true,
		},
		{
			name:      "crossing midnight",
			attr:      "2026-02-01 23:30",
			text:      "Sunday 1 February 2026 | 23.30 - 01.10",
			wantStart: "2026-02-01T22:30:00Z",
			wantEnd:   "2026-02-02T00:10:00Z",
			wantOK:    true,
		},
		{
			name:   "attribute without end time",
			attr:   "2026-02-01 09:15",
			text:   "Sunday morning",
			wantOK: false,
		},
		{
			name:   "nothing parseable",
			attr:   "soon",
			text:   "to be announced",
			wantOK: false,
		},
		{
			name:   "invalid calendar date",
			attr:   "2026-02-30 10:00",
			text:   "| 10.00 - 11.00",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := parseScreeningTimes(tt.attr, tt.text)
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v (start=%v end=%v)", tt.wantOK, ok, start, end)
			}
			if !ok {
				return
			}
			if got := start.Format(time.RFC3339); got != tt.wantStart {
				t.Errorf("Expected start %s, got %s", tt.wantStart, got)
			}
			if got := end.Format(time.RFC3339); got != tt.wantEnd {
				t.Errorf("Expected end %s, got %s", tt.wantEnd, got)
			}
		})
	}
}
