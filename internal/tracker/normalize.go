package tracker

import (
	"regexp"
	"strings"
)

var (
	artistCharset   = regexp.MustCompile(`[^a-z0-9]`)
	filenameCharset = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)
	sheetURLPattern = regexp.MustCompile(`https://docs\.google\.com/spreadsheets/d/([a-zA-Z0-9-_]{44})`)
	sheetIDPattern  = regexp.MustCompile(`/d/([a-zA-Z0-9-_]{44})/`)
)

// NormalizeArtistName turns a free-text artist name into a stable
// lowercase identifier. The $->s substitution happens before stripping
// so currency-stylized names collide with their plain spellings, which
// is what keeps entries matched across sync cycles.
func NormalizeArtistName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "$", "s")
	return artistCharset.ReplaceAllString(name, "")
}

// SanitizeFilename strips a filename down to [a-zA-Z0-9_.-] after the
// $->s substitution and space removal. The result may be empty for
// pathological input; callers must skip such entries.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "$", "s")
	filename = strings.ReplaceAll(filename, " ", "")
	return filenameCharset.ReplaceAllString(filename, "")
}

// CleanSheetURL validates a raw URL against the canonical Google Sheets
// document pattern and returns the normalized form ending in a slash.
// Anything that does not carry an exact 44-character ID is rejected.
func CleanSheetURL(raw string) (string, bool) {
	m := sheetURLPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return "https://docs.google.com/spreadsheets/d/" + m[1] + "/", true
}

// ExtractSheetID pulls the 44-character document ID out of a canonical
// sheet URL.
func ExtractSheetID(url string) (string, bool) {
	m := sheetIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}
