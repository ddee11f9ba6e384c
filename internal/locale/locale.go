// Package locale formats dates, times and numbers for the Marathi display
// used on the booth and editor pages. There is exactly one target locale and
// no negotiation; every function is pure.
package locale

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// MorningMarker prefixes times before noon.
	MorningMarker = "स."
	// EveningMarker prefixes times from noon onwards.
	EveningMarker = "सायं."
)

var months = [12]string{
	"जानेवारी", "फेब्रुवारी", "मार्च", "एप्रिल", "मे", "जून",
	"जुलै", "ऑगस्ट", "सप्टेंबर", "ऑक्टोबर", "नोव्हेंबर", "डिसेंबर",
}

var digits = [10]rune{'०', '१', '२', '३', '४', '५', '६', '७', '८', '९'}

// MonthName returns the Marathi name for m.
func MonthName(m time.Month) string {
	return months[m-1]
}

// FormatDate renders t as "<day> <month> <year>". Day and year keep ASCII
// digits; pass the result through Numerals for native glyphs.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), MonthName(t.Month()), t.Year())
}

// FormatDateString parses a calendar date in YYYY-MM-DD form and formats it
// with FormatDate. An empty input yields an empty string.
func FormatDateString(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return "", fmt.Errorf("parsing date %q: %w", s, err)
	}
	return FormatDate(t), nil
}

// FormatTime converts a 24-hour "HH:MM" value into "<marker> <hour>.<minute>".
// Hours above 12 are folded into 12-hour form; minutes pass through as given.
// An empty input yields an empty string.
func FormatTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return "", fmt.Errorf("parsing time %q: missing ':'", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return "", fmt.Errorf("parsing time %q: bad hour", s)
	}
	if m, err := strconv.Atoi(mm); err != nil || m < 0 || m > 59 || len(mm) != 2 {
		return "", fmt.Errorf("parsing time %q: bad minute", s)
	}

	marker := MorningMarker
	if h >= 12 {
		marker = EveningMarker
	}
	if h > 12 {
		h -= 12
	}
	return fmt.Sprintf("%s %d.%s", marker, h, mm), nil
}

// Numerals maps every ASCII digit in s to its Devanagari glyph. All other
// bytes are copied as is, including invalid UTF-8.
func Numerals(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteRune(digits[c-'0'])
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Itoa is Numerals applied to the decimal form of n.
func Itoa(n int) string {
	return Numerals(strconv.Itoa(n))
}
