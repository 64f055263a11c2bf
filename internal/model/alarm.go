package model

import "fmt"

// Alarm is a single daily dose time for a medicine. One medicine owns
// TimesPerDay alarms, created together at setup time. MedicineName is cached
// on the alarm so the firing path can render a prompt without a join.
//
// RequestCode identifies this alarm's pending wake timer. It is allocated from
// a stored counter in the registry, so two alarms can never share a code; the
// wake timer treats re-arming an existing code as replace, not duplicate.
type Alarm struct {
	ID           string `firestore:"id" json:"id"`
	MedicineID   string `firestore:"medicineId" json:"medicine_id"`
	MedicineName string `firestore:"medicineName" json:"medicine_name"`
	UserID       string `firestore:"userId" json:"user_id"`

	Hour       int    `firestore:"hour" json:"hour"`     // 0-23, device-local
	Minute     int    `firestore:"minute" json:"minute"` // 0-59
	TimeString string `firestore:"timeString" json:"time_string"`

	Active      bool  `firestore:"isActive" json:"active"`
	RequestCode int   `firestore:"requestCode" json:"request_code"`
	CreatedAt   int64 `firestore:"createdAt" json:"created_at"`
}

// FormattedTime renders the alarm time as "HH:MM".
func (a *Alarm) FormattedTime() string {
	return fmt.Sprintf("%02d:%02d", a.Hour, a.Minute)
}
