package model

import "strings"

// User mirrors the "users" collection. Authentication itself is handled by an
// external identity provider; the registry only stores the profile document
// and bumps LastLoginAt.
type User struct {
	ID              string `firestore:"id" json:"id"`
	Email           string `firestore:"email" json:"email"`
	Name            string `firestore:"name" json:"name"`
	ProfileImageURL string `firestore:"profileImageUrl" json:"profile_image_url,omitempty"`

	CreatedAt   int64 `firestore:"createdAt" json:"created_at"`
	LastLoginAt int64 `firestore:"lastLoginAt" json:"last_login_at"`

	NotificationsEnabled  bool `firestore:"notificationsEnabled" json:"notifications_enabled"`
	ReminderMinutesBefore int  `firestore:"reminderMinutesBefore" json:"reminder_minutes_before"`
}

// DisplayName falls back to the local part of the email when no name is set.
func (u *User) DisplayName() string {
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	if i := strings.Index(u.Email, "@"); i > 0 {
		return u.Email[:i]
	}
	return u.Email
}
