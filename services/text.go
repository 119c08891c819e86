package services

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// cleanText trims and NFC-normalizes user supplied labels so visually equal
// names and codes compare equal in the database.
func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
