// Package schedule computes daily dose times for a medication course.
package schedule

import (
	"fmt"
	"time"
)

// DoseTime is a wall-clock time of day. No date or timezone is attached; the
// device-local clock is implied.
type DoseTime struct {
	Hour   int
	Minute int
}

// String renders the dose time as "HH:MM".
func (d DoseTime) String() string {
	return fmt.Sprintf("%02d:%02d", d.Hour, d.Minute)
}

// DoseTimes returns timesPerDay wall-clock times, starting at
// (startHour, startMinute) and advancing by intervalHours per dose. Hours wrap
// modulo 24; the day rollover is deliberately discarded because only the
// time-of-day is scheduled.
func DoseTimes(startHour, startMinute, timesPerDay, intervalHours int) []DoseTime {
	times := make([]DoseTime, 0, timesPerDay)
	hour := startHour
	for i := 0; i < timesPerDay; i++ {
		times = append(times, DoseTime{Hour: hour % 24, Minute: startMinute})
		hour = (hour + intervalHours) % 24
	}
	return times
}

// NextOccurrence returns the next instant at which the given wall-clock time
// occurs: today if it is still ahead of now, otherwise the same time tomorrow.
// Seconds and below are zeroed.
func NextOccurrence(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
