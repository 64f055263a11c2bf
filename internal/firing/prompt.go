// Package firing turns a fired wake trigger into a user-facing alarm prompt
// and handles the dismiss/snooze exits.
package firing

import (
	"errors"
	"sync"
	"time"

	"medalarm-backend/internal/wake"
)

const (
	// MaxSnooze is the number of times a single firing may be postponed.
	MaxSnooze = 2
	// DefaultSnoozeDelay is how far a snooze pushes the alarm.
	DefaultSnoozeDelay = 5 * time.Minute

	// fallbackMedicineName substitutes for a missing name in a fire payload,
	// so a stripped payload still shows a prompt.
	fallbackMedicineName = "İlaç"
)

var (
	ErrNoPrompt    = errors.New("no prompt is firing for that alarm")
	ErrSnoozeLimit = errors.New("snooze limit reached")
)

// Prompt is one firing occurrence: full-screen, sound and vibration running
// until it is dismissed or snoozed. The next scheduled firing of the same
// alarm is a fresh prompt with SnoozeCount zero.
type Prompt struct {
	AlarmID      string `json:"alarm_id"`
	UserID       string `json:"user_id"`
	MedicineName string `json:"medicine_name"`
	TimeString   string `json:"time"`
	SnoozeCount  int    `json:"snooze_count"`
	RequestCode  int    `json:"request_code"`
	FiredAt      int64  `json:"fired_at"`
	Sounding     bool   `json:"sounding"`
}

// RemainingSnoozes is shown on the snooze control; at zero the control is
// disabled and dismiss is the only exit.
func (p *Prompt) RemainingSnoozes() int {
	if p.SnoozeCount >= MaxSnooze {
		return 0
	}
	return MaxSnooze - p.SnoozeCount
}

// Board tracks the prompts currently firing, keyed by alarm id.
type Board struct {
	mu      sync.Mutex
	prompts map[string]*Prompt

	timer       wake.Timer
	snoozeDelay time.Duration
	clock       func() time.Time
}

// NewBoard creates a prompt board that re-arms snoozed alarms through timer.
func NewBoard(timer wake.Timer, snoozeDelay time.Duration) *Board {
	if snoozeDelay <= 0 {
		snoozeDelay = DefaultSnoozeDelay
	}
	return &Board{
		prompts:     make(map[string]*Prompt),
		timer:       timer,
		snoozeDelay: snoozeDelay,
		clock:       time.Now,
	}
}

// Open transitions Idle→Firing for the payload's alarm and returns the prompt.
// Missing payload fields are defaulted rather than rejected.
func (b *Board) Open(payload wake.FirePayload) *Prompt {
	if payload.MedicineName == "" {
		payload.MedicineName = fallbackMedicineName
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	p := &Prompt{
		AlarmID:      payload.AlarmID,
		UserID:       payload.UserID,
		MedicineName: payload.MedicineName,
		TimeString:   payload.TimeString,
		SnoozeCount:  payload.SnoozeCount,
		RequestCode:  payload.RequestCode,
		FiredAt:      b.clock().UnixMilli(),
		Sounding:     true,
	}
	b.prompts[payload.AlarmID] = p
	return p
}

// Dismiss closes the prompt and stops sound and vibration. Terminal for this
// occurrence; the next firing is already armed by the wake binding.
func (b *Board) Dismiss(alarmID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.prompts[alarmID]
	if !ok {
		return ErrNoPrompt
	}
	b.close(p)
	return nil
}

// Snooze stops the prompt and arms one replacement one-shot trigger
// snoozeDelay from now, carrying an incremented snooze count on the alarm's
// own request code (the previous trigger has already fired, so the identity
// is free to reuse). Rejected once the snooze count has reached MaxSnooze.
func (b *Board) Snooze(alarmID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.prompts[alarmID]
	if !ok {
		return ErrNoPrompt
	}
	if p.SnoozeCount >= MaxSnooze {
		return ErrSnoozeLimit
	}

	payload := wake.FirePayload{
		AlarmID:      p.AlarmID,
		UserID:       p.UserID,
		MedicineName: p.MedicineName,
		TimeString:   p.TimeString,
		SnoozeCount:  p.SnoozeCount + 1,
		RequestCode:  p.RequestCode,
	}
	b.timer.ArmExactOneShot(p.RequestCode, b.clock().Add(b.snoozeDelay).UnixMilli(), payload)

	b.close(p)
	return nil
}

// close stops sound/vibration and removes the prompt. Every exit path goes
// through here, so a prompt can never keep sounding after it is gone.
func (b *Board) close(p *Prompt) {
	p.Sounding = false
	delete(b.prompts, p.AlarmID)
}

// Get returns the firing prompt for the alarm, or nil.
func (b *Board) Get(alarmID string) *Prompt {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.prompts[alarmID]
	if !ok {
		return nil
	}
	copy := *p
	return &copy
}

// ActiveForUser returns the prompts currently firing for a user.
func (b *Board) ActiveForUser(userID string) []Prompt {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Prompt
	for _, p := range b.prompts {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out
}
