// Package wake is the binding to the exact wake-timer facility. Each armed
// timer is identified by an integer request code; arming an identity that is
// already armed replaces the pending trigger, it never duplicates it.
//
// The timer state is ephemeral. It is rebuilt from the alarm registry after a
// restart and must tolerate being empty or stale at any time.
package wake

// FirePayload is the small fixed payload carried by a wake trigger and handed
// to the firing receiver when it goes off.
type FirePayload struct {
	AlarmID      string `json:"alarm_id"`
	UserID       string `json:"user_id"`
	MedicineName string `json:"medicine_name"`
	TimeString   string `json:"time"`
	SnoozeCount  int    `json:"snooze_count"`
	RequestCode  int    `json:"request_code"`
}

// Timer is the wake-timer collaborator. Implementations must treat a missing
// exact-alarm permission as "not armed", never as an error.
type Timer interface {
	// ArmExactOneShot registers a single trigger for the identity, replacing
	// any pending trigger with the same identity.
	ArmExactOneShot(identity int, fireAt int64, payload FirePayload)

	// ArmDailyRepeating registers a trigger that re-arms itself 24h after each
	// firing. The snooze-capable setup flow does not use it, because a
	// repeating trigger cannot carry per-firing state.
	ArmDailyRepeating(identity int, firstFireAt int64, payload FirePayload)

	// Cancel removes the pending trigger for the identity. Cancelling an
	// identity that was never armed is a no-op.
	Cancel(identity int)
}
