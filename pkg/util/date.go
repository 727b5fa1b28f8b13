package util

import (
    "strconv"
    "time"
)

// ParseTime tries RFC3339, RFC3339Nano, YYYY-MM-DD, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
        return t, true
    }
    if t, err := time.Parse("2006-01-02", s); err == nil {
        return t, true
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        return time.Unix(ts, 0), true
    }
    return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
    if t, ok := ParseTime(s); ok {
        return t
    }
    return def
}

// DayUTC truncates t to UTC midnight. Daily price series are keyed on this.
func DayUTC(t time.Time) time.Time {
    u := t.UTC()
    return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NextDay returns the UTC midnight one calendar day after t.
func NextDay(t time.Time) time.Time {
    return DayUTC(t).AddDate(0, 0, 1)
}

// DaysBetween returns whole days from a to b, negative if b precedes a.
func DaysBetween(a, b time.Time) int {
    return int(DayUTC(b).Sub(DayUTC(a)) / (24 * time.Hour))
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
    return DayUTC(a).Equal(DayUTC(b))
}

// FormatDay renders a UTC calendar day as YYYY-MM-DD.
func FormatDay(t time.Time) string {
    return DayUTC(t).Format("2006-01-02")
}
