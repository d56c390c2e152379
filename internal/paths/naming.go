// Package paths works with the slash-joined node paths a structure
// clone produces, and with project short names derived from display
// names.
package paths

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	shortNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	maxShortNameLen  = 32
)

// ShortName derives a project short name from a display name.
// Rules:
// - Always lower-case
// - Allowed characters: a-z, 0-9, -
// - Must start with [a-z0-9]
// - Regex: ^[a-z0-9][a-z0-9-]*$
// - Max length: 32 bytes, truncated
func ShortName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("project name cannot be empty")
	}

	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")

	var result strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			result.WriteRune(r)
		}
	}
	s = result.String()
	s = strings.Trim(s, "-")

	if len(s) == 0 || !((s[0] >= 'a' && s[0] <= 'z') || (s[0] >= '0' && s[0] <= '9')) {
		return "", fmt.Errorf("project name %q yields no usable short name", name)
	}

	if len(s) > maxShortNameLen {
		s = strings.TrimRight(s[:maxShortNameLen], "-")
	}

	if !shortNamePattern.MatchString(s) {
		return "", fmt.Errorf("invalid short name: %s", s)
	}

	return s, nil
}

// ValidateShortName checks a short name without normalizing it.
func ValidateShortName(s string) error {
	if s == "" {
		return fmt.Errorf("short name cannot be empty")
	}
	if len(s) > maxShortNameLen {
		return fmt.Errorf("short name exceeds maximum length of %d bytes", maxShortNameLen)
	}
	if !shortNamePattern.MatchString(s) {
		return fmt.Errorf("invalid short name format: must be lowercase, start with alphanumeric, and contain only [a-z0-9-]")
	}
	return nil
}

// SplitPath splits a node path into name segments.
func SplitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// JoinPath joins name segments into a node path.
func JoinPath(segments ...string) string {
	return strings.Join(segments, "/")
}
