package schemadelta

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// deltaTemplate is written into newly scaffolded deltas.
const deltaTemplate = "-- Write your delta SQL here\n\n" + UndoMarker + "\n-- Rollback SQL below this marker is ignored\n"

// CreateDelta writes an empty delta file into dir, numbered one above the
// highest existing delta, and returns its path.
// newline selects the line ending of the template: "LF" (default), "CR" or "CRLF".
func CreateDelta(dir, description, newline string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to scan delta directory: %w", err)
	}
	max := 0
	for _, entry := range entries {
		if id, _, ok, err := parseDeltaName(entry.Name()); err == nil && ok && id > max {
			max = id
		}
	}

	name := snakeCase(description)
	if name == "" {
		return "", fmt.Errorf("%w: description %q has no usable characters", ErrInvalidConfig, description)
	}
	if newline == "" {
		newline = "LF"
	}
	content, err := convertLineEnding(deltaTemplate, newline)
	if err != nil {
		return "", err
	}

	target := filepath.Join(dir, fmt.Sprintf("%03d_%s.sql", max+1, name))
	if err := os.WriteFile(target, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to create delta file %s: %w", target, err)
	}
	return target, nil
}

var nonAlnum = regexp.MustCompile("[^a-z0-9]+")

// snakeCase converts a string to snake_case.
func snakeCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnum.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

var lineEnding = regexp.MustCompile(`\r\n|\r|\n`)

// convertLineEnding converts all newline variations in content to the target style.
func convertLineEnding(content, style string) (string, error) {
	var target string
	switch style {
	case "LF":
		target = "\n"
	case "CR":
		target = "\r"
	case "CRLF":
		target = "\r\n"
	default:
		return "", fmt.Errorf("%w: newline must be one of: LF, CR, CRLF", ErrInvalidConfig)
	}
	return lineEnding.ReplaceAllString(content, target), nil
}
