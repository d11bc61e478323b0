// Package security keeps names derived from input data from escaping the
// report directory.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// maxFilenameLen bounds names built from segment labels.
const maxFilenameLen = 128

// SanitizeFilename makes a file name component from an arbitrary label.
// Characters other than ASCII letters, digits, dot, underscore and dash
// become a single underscore, leading and trailing dots and underscores are
// trimmed, and the result is cut to maxFilenameLen bytes. It returns "" when
// nothing usable is left.
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "._")
}

// JoinWithin joins name onto dir and rejects the result if it does not stay
// inside dir. The check is lexical so it also works on in-memory file
// systems.
func JoinWithin(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	rel, err := filepath.Rel(filepath.Clean(dir), path)
	if err != nil {
		return "", fmt.Errorf("path %q outside %q: %w", name, dir, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: %q escapes %q", name, dir)
	}
	return path, nil
}
