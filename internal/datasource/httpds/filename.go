package httpds

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"
)

// filenameCleaner matches runs of characters that are unsafe in a file name.
var filenameCleaner = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// HashString returns the SHA1 hex digest of s.
func HashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

// SafeFilename turns an arbitrary identifier into a single path element.
// Safe identifiers are returned unchanged; unsafe runs collapse to "_". A
// result that is empty or only dots falls back to the hash of s.
func SafeFilename(s string) string {
	clean := filenameCleaner.ReplaceAllString(s, "_")
	if strings.Trim(clean, "._") == "" {
		return HashString(s)
	}
	return clean
}
