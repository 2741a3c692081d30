package uiauto

import (
	"fmt"
	"strconv"
	"strings"
)

// The vendor app renders every level as a signed integer with a two-character
// unit marker, e.g. "-14 dB" or "0 dB". Writes must use the same form.

// parseDB converts the vendor's textual level into integer decibels. A value
// that doesn't parse is surfaced as an error rather than silently read as
// 0 dB; treating "unreadable" as "full volume minus nothing" would be far
// worse than a failed read.
func parseDB(text string) (int, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimSuffix(s, "dB")
	s = strings.TrimSpace(s)

	db, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unparseable level %q: %w", text, err)
	}
	return db, nil
}

// formatDB renders integer decibels in the vendor's textual form.
func formatDB(db int) string {
	return fmt.Sprintf("%d dB", db)
}

// parseCheckbox converts the "0"/"1" (or "false"/"true") a checkbox query
// returns into a bool.
func parseCheckbox(text string) (bool, error) {
	switch strings.TrimSpace(text) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	default:
		return false, fmt.Errorf("unparseable checkbox value %q", text)
	}
}
