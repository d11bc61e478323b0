package units

import (
	"testing"
	"time"
)

func TestLoadTimezone(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		want     string
		wantErr  bool
	}{
		{"empty", "", "UTC", false},
		{"utc lower", "utc", "UTC", false},
		{"local", "local", time.Local.String(), false},
		{"named", "Europe/Berlin", "Europe/Berlin", false},
		{"invalid", "Invalid/Timezone", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadTimezone(tt.timezone)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("LoadTimezone(%q) = %v, want error", tt.timezone, loc)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadTimezone(%q): %v", tt.timezone, err)
			}
			if loc.String() != tt.want {
				t.Errorf("LoadTimezone(%q) = %s, want %s", tt.timezone, loc, tt.want)
			}
		})
	}
}

func TestFormatUnixNano(t *testing.T) {
	ns := time.Date(2025, 9, 13, 12, 0, 0, 0, time.UTC).UnixNano()

	if got := FormatUnixNano(ns, nil); got != "2025-09-13T12:00:00Z" {
		t.Errorf("FormatUnixNano(nil) = %s", got)
	}

	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	if got := FormatUnixNano(ns, berlin); got != "2025-09-13T14:00:00+02:00" {
		t.Errorf("FormatUnixNano(Berlin) = %s", got)
	}
}
