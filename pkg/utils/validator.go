package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// SanitizeString trims s and strips control characters
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}

// ParseID parses a positive int64 identifier
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %q", raw)
	}
	return id, nil
}

// ParseOptionalID parses raw when it is non-empty
func ParseOptionalID(raw string) (*int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := ParseID(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ParseNonNegativeInt parses raw, returning def when raw is empty
func ParseNonNegativeInt(raw string, def int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid non-negative integer: %q", raw)
	}
	return n, nil
}
