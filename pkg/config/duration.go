package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML as either an
// ISO-8601 duration ("PT1S", "PT1M30S", "P1DT2H") or a Go duration string
// ("1s", "200ms").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ParseDuration parses an ISO-8601 duration, falling back to Go duration
// syntax when the string does not start with "P".
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if s[0] != 'P' && s[0] != 'p' {
		return time.ParseDuration(s)
	}
	return parseISO8601(s)
}

// parseISO8601 handles the P[nD][T[nH][nM][nS]] form. Year and month
// designators are rejected: they have no fixed length in seconds.
func parseISO8601(s string) (time.Duration, error) {
	orig := s
	s = strings.ToUpper(s)[1:] // strip P

	var total time.Duration
	inTime := false
	seen := false

	for len(s) > 0 {
		if s[0] == 'T' {
			inTime = true
			s = s[1:]
			continue
		}

		i := 0
		for i < len(s) && (s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
			i++
		}
		if i == 0 || i == len(s) {
			return 0, fmt.Errorf("invalid ISO-8601 duration %q", orig)
		}
		value, err := strconv.ParseFloat(s[:i], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid ISO-8601 duration %q: %w", orig, err)
		}

		var unit time.Duration
		switch designator := s[i]; {
		case !inTime && designator == 'W':
			unit = 7 * 24 * time.Hour
		case !inTime && designator == 'D':
			unit = 24 * time.Hour
		case inTime && designator == 'H':
			unit = time.Hour
		case inTime && designator == 'M':
			unit = time.Minute
		case inTime && designator == 'S':
			unit = time.Second
		default:
			return 0, fmt.Errorf("invalid ISO-8601 duration %q: unsupported designator %q", orig, string(s[i]))
		}

		total += time.Duration(value * float64(unit))
		seen = true
		s = s[i+1:]
	}

	if !seen {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", orig)
	}
	return total, nil
}
