package types

import (
	"errors"
	"fmt"
	"time"
)

// ErrDurationFormat is returned when a duration string does not match the
// compact grammar accepted by ParseDuration.
var ErrDurationFormat = errors.New("types: invalid duration format")

// ParseDuration parses a compact duration string into a time.Duration.
//
// The grammar is one or more <integer><unit> segments, where unit is one of
// d (days), h (hours), m (minutes), s (seconds). Segments are summed:
//
//	"30d"      -> 720h
//	"1d12h30m" -> 36h30m
//
// The whole input must match the grammar. Empty strings, unknown units, and
// trailing garbage are errors; there is no silent defaulting.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrDurationFormat)
	}

	var total time.Duration
	i := 0
	for i < len(s) {
		// Scan the integer part.
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			return 0, fmt.Errorf("%w: %q: expected digit at position %d", ErrDurationFormat, s, i)
		}

		var value int64
		for _, c := range s[start:i] {
			value = value*10 + int64(c-'0')
		}

		if i >= len(s) {
			return 0, fmt.Errorf("%w: %q: missing unit after %q", ErrDurationFormat, s, s[start:i])
		}

		switch s[i] {
		case 'd':
			total += time.Duration(value) * 24 * time.Hour
		case 'h':
			total += time.Duration(value) * time.Hour
		case 'm':
			total += time.Duration(value) * time.Minute
		case 's':
			total += time.Duration(value) * time.Second
		default:
			return 0, fmt.Errorf("%w: %q: unknown unit %q (expected d, h, m, or s)", ErrDurationFormat, s, string(s[i]))
		}
		i++
	}

	return total, nil
}
