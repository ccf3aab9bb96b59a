package threshold

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidNumeric means the raw value had no numeric content after
	// stripping units, percent signs and other decoration.
	ErrInvalidNumeric = errors.New("value is not numeric")

	// ErrInvalidDate means no date could be found in the raw value.
	ErrInvalidDate = errors.New("value is not a date")
)

// SanitizeNumeric strips everything except digits and the first decimal
// point from raw ("75%", "128 MB", "99.9 %") and parses the remainder as a
// float.
func SanitizeNumeric(raw string) (float64, error) {
	var b strings.Builder
	sawPoint := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !sawPoint:
			sawPoint = true
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	if cleaned == "" || cleaned == "." {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumeric, raw)
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumeric, raw)
	}
	return v, nil
}

// Accepted in order; month/day/year first because that is what the
// monitoring sources emit.
var dateLayouts = []string{
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Matches a date with optional time-of-day embedded in surrounding text,
// e.g. "Last backup: 4/17/2026 10:31 PM (full)".
var embeddedDatePattern = regexp.MustCompile(
	`\d{1,4}[-/]\d{1,2}[-/]\d{1,4}(?:[T ]\d{1,2}:\d{2}(?::\d{2})?(?:\s*[AP]M)?(?:Z|[+-]\d{2}:\d{2})?)?`)

// ParseLooseDate extracts a timestamp from raw, tolerating extra text
// around the date literal.
func ParseLooseDate(raw string) (time.Time, error) {
	candidates := []string{strings.TrimSpace(raw)}
	if m := embeddedDatePattern.FindString(raw); m != "" {
		candidates = append(candidates, strings.TrimSpace(m))
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, candidate); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}
