package normalization

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// ParseInputString trims surrounding whitespace. Case is preserved.
func ParseInputString(s string) string {
	return strings.TrimSpace(s)
}

func ParseInputStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := ParseInputString(*s)
	if v == "" {
		return nil
	}
	return &v
}

// ParseEmail trims and lowercases an email address.
func ParseEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Slugify turns "Living Room Sofá" into "living-room-sofa".
func Slugify(s string) string {
	decomposed := norm.NFKD.String(strings.ToLower(strings.TrimSpace(s)))
	var b strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Trim(slugStrip.ReplaceAllString(b.String(), "-"), "-")
}

// SplitCSV splits "a, b,,c" into [a b c].
func SplitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
