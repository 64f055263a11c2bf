package model

import "time"

// PushSubscription holds a browser/device push subscription. Subscriptions are
// device-local state and live in the relational store, not in the document
// store; losing them only affects notification delivery, never the schedule.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	UserID    string    `gorm:"index;size:128;not null" json:"user_id"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
}
