// Package timeutil holds the duration arithmetic shared by the shift
// tracker and the aggregation code. All durations in the system are
// whole minutes: elapsed seconds are floor-divided and negative results
// are clamped to zero so that clock skew or a malformed row can never
// produce a negative total.
package timeutil

import (
	"fmt"
	"time"
)

// ElapsedMinutes returns the whole minutes between start and end,
// floored, never negative.
func ElapsedMinutes(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}

// ClampMinutes normalizes a user-declared minute value: negative
// input counts as zero.
func ClampMinutes(minutes int) int {
	if minutes < 0 {
		return 0
	}
	return minutes
}

// DayOf truncates a timestamp to midnight in its own location, which is
// how work dates are stored and compared.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatHM renders a timestamp as "HH:MM" for summary lines.
func FormatHM(t time.Time) string {
	return t.Format("15:04")
}

// FormatDateDMY renders a date as "DD.MM.YYYY", the format workers see
// in messages and report headers.
func FormatDateDMY(t time.Time) string {
	return t.Format("02.01.2006")
}

// FormatMinutesHuman renders a minute total the way the bot talks about
// time: "3 ч 05 мин", "3 ч" or "45 мин".
func FormatMinutesHuman(total int) string {
	if total < 0 {
		total = 0
	}
	hours := total / 60
	minutes := total % 60

	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%d ч %02d мин", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%d ч", hours)
	default:
		return fmt.Sprintf("%d мин", minutes)
	}
}
