package model

import "time"

const millisPerDay = 24 * 60 * 60 * 1000

// Medicine is a medication course owned by a single user. It is stored in the
// "medicines" collection of the document store and is never hard-deleted;
// DeactivateMedicine flips Active to false instead.
type Medicine struct {
	ID          string `firestore:"id" json:"id"`
	UserID      string `firestore:"userId" json:"user_id"`
	Barcode     string `firestore:"barcode" json:"barcode,omitempty"`
	Name        string `firestore:"name" json:"name"`
	Dosage      string `firestore:"dosage" json:"dosage"`
	ImageURL    string `firestore:"imageUrl" json:"image_url,omitempty"`
	Description string `firestore:"description" json:"description,omitempty"`

	TimesPerDay   int    `firestore:"timesPerDay" json:"times_per_day"`
	StartTime     string `firestore:"startTime" json:"start_time"`
	IntervalHours int    `firestore:"intervalHours" json:"interval_hours"`
	DurationDays  int    `firestore:"durationDays" json:"duration_days"`
	StartDate     int64  `firestore:"startDate" json:"start_date"` // epoch millis

	CreatedAt int64 `firestore:"createdAt" json:"created_at"`
	Active    bool  `firestore:"active" json:"active"`
}

// EndDate returns the epoch-millis timestamp at which the course ends.
func (m *Medicine) EndDate() int64 {
	return m.StartDate + int64(m.DurationDays)*millisPerDay
}

// CurrentlyActive reports whether the course is both not deleted and not yet
// past its end date.
func (m *Medicine) CurrentlyActive(now time.Time) bool {
	return m.Active && now.UnixMilli() < m.EndDate()
}
