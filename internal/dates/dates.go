// Package dates parses partial ISO8601 dates such as "1980", "1980-06" or
// "1980-06-15T10:30" and decomposes dates for partial-precision comparison.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Pattern matches YYYY(-MM(-DD(THH(:MM(:SS(Z)?)?)?)?)?)?
var Pattern = regexp.MustCompile(`^(\d{4})(?:-(\d{2})(?:-(\d{2})(?:T(\d{2})(?::(\d{2})(?::(\d{2})(Z)?)?)?)?)?)?$`)

// Fields is the number of components returned by Items
const Fields = 6

// Parse converts a partial ISO8601 string into a UTC time.
// Missing month defaults to January, missing day to 1, missing time fields to 0.
func Parse(s string) (time.Time, error) {
	items, _, err := parseItems(s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(items[0], time.Month(items[1]), items[2], items[3], items[4], items[5], 0, time.UTC), nil
}

// Precision returns how many components s specifies (1 for "1980", 2 for "1980-06", ...)
func Precision(s string) int {
	_, n, err := parseItems(s)
	if err != nil {
		return 0
	}
	return n
}

// Valid reports whether s is a well-formed partial date
func Valid(s string) bool {
	return Pattern.MatchString(s)
}

// Items decomposes t (in UTC) into year, month (1-based), day, hour, minute, second
func Items(t time.Time) [Fields]int {
	t = t.UTC()
	return [Fields]int{t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second()}
}

// Match reports whether t equals the partial date s on every component s specifies
func Match(t time.Time, s string) bool {
	want, n, err := parseItems(s)
	if err != nil {
		return false
	}
	got := Items(t)
	for i := 0; i < n; i++ {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func parseItems(s string) ([Fields]int, int, error) {
	items := [Fields]int{0, 1, 1, 0, 0, 0}
	m := Pattern.FindStringSubmatch(s)
	if m == nil {
		return items, 0, fmt.Errorf("invalid date %q", s)
	}

	n := 0
	for i := 0; i < Fields; i++ {
		if m[i+1] == "" {
			break
		}
		v, err := strconv.Atoi(m[i+1])
		if err != nil {
			return items, 0, fmt.Errorf("invalid date %q: %w", s, err)
		}
		items[i] = v
		n++
	}
	return items, n, nil
}
