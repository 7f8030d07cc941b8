// Package calendar keeps the scheduled practice sessions of the current
// user indexed by date key and derives the month grid, the day view, the
// upcoming list and the CSV export from that index.
//
// A date key is a zero-padded YYYY-MM-DD string built from the local
// calendar fields of a time. Keys compare correctly as plain strings.
package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/atinyakov/hacklearn/internal/models"
)

var dateKeyPattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// FormatDateKey returns the date key of t in t's own location.
func FormatDateKey(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// ParseDateKey returns local midnight in loc of the day named by key.
// Keys that do not name a real day, such as 2025-02-30, are rejected.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	m := dateKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", models.ErrInvalidDateKey, key)
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])

	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, loc)
	if FormatDateKey(t) != key {
		return time.Time{}, fmt.Errorf("%w: %q is not a calendar day", models.ErrInvalidDateKey, key)
	}
	return t, nil
}

// startOfDay truncates t to local midnight.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// monthBounds returns the first and last day of the month containing t.
func monthBounds(t time.Time) (first, last time.Time) {
	y, m, _ := t.Date()
	first = time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	last = time.Date(y, m+1, 0, 0, 0, 0, 0, t.Location())
	return first, last
}

// mondayIndex maps a Sunday-first weekday onto a Monday-first column.
func mondayIndex(w time.Weekday) int {
	return (int(w) + 6) % 7
}

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// WeekdayLabels are the Monday-first column headings of the month grid.
var WeekdayLabels = [7]string{"Lu", "Ma", "Mi", "Ju", "Vi", "Sa", "Do"}
