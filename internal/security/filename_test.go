package security

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"fast", "fast"},
		{"Slow Block", "Slow_Block"},
		{"../etc/passwd", "etc_passwd"},
		{"a  /\\ b", "a_b"},
		{"v1.2-final", "v1.2-final"},
		{"___", ""},
		{"???", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFilename_Truncates(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("x", 300))
	if len(got) != maxFilenameLen {
		t.Errorf("len = %d, want %d", len(got), maxFilenameLen)
	}
}

func TestJoinWithin(t *testing.T) {
	dir := filepath.Join("out", "plots")
	tests := []struct {
		name      string
		file      string
		want      string
		wantError bool
	}{
		{name: "plain file", file: "gaze_fast.png", want: filepath.Join(dir, "gaze_fast.png")},
		{name: "nested", file: filepath.Join("a", "b.csv"), want: filepath.Join(dir, "a", "b.csv")},
		{name: "parent", file: "..", wantError: true},
		{name: "traversal", file: filepath.Join("..", "..", "etc", "passwd"), wantError: true},
		{name: "dir itself", file: "", wantError: true},
		{name: "dotted name", file: "..summary", want: filepath.Join(dir, "..summary")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JoinWithin(dir, tt.file)
			if tt.wantError {
				if err == nil {
					t.Errorf("JoinWithin(%q) = %q, want error", tt.file, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("JoinWithin(%q): %v", tt.file, err)
			}
			if got != tt.want {
				t.Errorf("JoinWithin(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}
