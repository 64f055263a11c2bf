package lifecycle

import (
	"context"
	"log"
)

// BootEvent is the zero-payload device-startup notification, plus the user
// whose schedule should be rebuilt.
type BootEvent struct {
	UserID string `json:"user_id"`
}

// BootReceiver consumes boot events on an explicit channel and runs the
// reschedule off the sender's goroutine, so delivering the event never blocks.
type BootReceiver struct {
	events chan BootEvent
	svc    *Service
}

// NewBootReceiver creates a receiver feeding the given service.
func NewBootReceiver(svc *Service) *BootReceiver {
	return &BootReceiver{
		events: make(chan BootEvent, 4),
		svc:    svc,
	}
}

// Notify delivers a boot event. It never blocks; if the receiver is saturated
// the event is dropped and the schedule is simply rebuilt on the next boot.
func (r *BootReceiver) Notify(ev BootEvent) {
	select {
	case r.events <- ev:
	default:
		log.Printf("boot: receiver saturated, dropping event for user %s", ev.UserID)
	}
}

// Run processes boot events until the context is cancelled.
func (r *BootReceiver) Run(ctx context.Context) {
	for {
		select {
		case ev := <-r.events:
			n, err := r.svc.RescheduleAfterBoot(ctx, ev.UserID)
			if err != nil {
				// No retry: a missed reschedule only delays notifications.
				log.Printf("boot: reschedule for user %s failed: %v", ev.UserID, err)
				continue
			}
			log.Printf("boot: rescheduled %d alarms for user %s", n, ev.UserID)
		case <-ctx.Done():
			return
		}
	}
}
