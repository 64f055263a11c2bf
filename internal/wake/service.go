package wake

import (
	"log"
	"sync"
	"time"
)

const day = 24 * time.Hour

type armed struct {
	timer     *time.Timer
	repeating bool
	payload   FirePayload
}

// Service implements Timer on in-process time.AfterFunc timers. Fired payloads
// are delivered on the channel returned by Fired; the firing receiver consumes
// it on its own goroutine.
type Service struct {
	mu      sync.Mutex
	pending map[int]*armed
	fired   chan FirePayload

	// exactAllowed mirrors the platform's exact-alarm permission. When false,
	// Arm logs the denial and leaves the alarm un-armed; the alarm document
	// persists but never fires. Known, accepted gap.
	exactAllowed bool
}

// NewService creates a timer service. buffer sizes the fired-payload channel.
func NewService(exactAllowed bool, buffer int) *Service {
	if buffer <= 0 {
		buffer = 16
	}
	return &Service{
		pending:      make(map[int]*armed),
		fired:        make(chan FirePayload, buffer),
		exactAllowed: exactAllowed,
	}
}

// Fired returns the channel on which triggered payloads are delivered.
func (s *Service) Fired() <-chan FirePayload {
	return s.fired
}

// ArmExactOneShot registers a one-shot trigger at fireAt (epoch millis).
func (s *Service) ArmExactOneShot(identity int, fireAt int64, payload FirePayload) {
	s.arm(identity, fireAt, payload, false)
}

// ArmDailyRepeating registers a trigger that re-arms itself every 24 hours.
func (s *Service) ArmDailyRepeating(identity int, firstFireAt int64, payload FirePayload) {
	s.arm(identity, firstFireAt, payload, true)
}

func (s *Service) arm(identity int, fireAt int64, payload FirePayload, repeating bool) {
	if !s.exactAllowed {
		log.Printf("wake: exact alarms not permitted, leaving identity %d unarmed (%s at %s)",
			identity, payload.MedicineName, payload.TimeString)
		return
	}

	delay := time.Until(time.UnixMilli(fireAt))
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.pending[identity]; ok {
		prev.timer.Stop()
	}

	a := &armed{repeating: repeating, payload: payload}
	a.timer = time.AfterFunc(delay, func() { s.fire(identity, a) })
	s.pending[identity] = a
}

// Cancel removes the trigger for the identity if one is pending.
func (s *Service) Cancel(identity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.pending[identity]; ok {
		a.timer.Stop()
		delete(s.pending, identity)
	}
}

// Armed reports whether the identity currently has a pending trigger.
func (s *Service) Armed(identity int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[identity]
	return ok
}

// ArmedCount returns the number of pending triggers.
func (s *Service) ArmedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// fire delivers the payload of one registration. The registration is passed
// through the AfterFunc closure so a callback that lost the race against
// Cancel or a re-arm (Stop on an already-fired timer is a no-op) cannot
// deliver or consume the entry that replaced it.
func (s *Service) fire(identity int, a *armed) {
	s.mu.Lock()
	if cur, ok := s.pending[identity]; !ok || cur != a {
		// Cancelled or replaced between the timer firing and us taking the lock.
		s.mu.Unlock()
		return
	}
	payload := a.payload
	if a.repeating {
		a.timer = time.AfterFunc(day, func() { s.fire(identity, a) })
	} else {
		delete(s.pending, identity)
	}
	s.mu.Unlock()

	select {
	case s.fired <- payload:
	default:
		log.Printf("wake: dropping fired payload for identity %d, receiver not keeping up", identity)
	}
}
