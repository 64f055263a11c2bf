package firing

import (
	"context"
	"log"

	"medalarm-backend/internal/wake"
)

// Dispatcher delivers the push notification for a firing. The notification
// worker pool implements it; tests fake it.
type Dispatcher interface {
	Dispatch(payload wake.FirePayload)
}

// Receiver consumes fired wake payloads and opens prompts. It is the explicit
// inbound handler for the single "timer fired" event type.
type Receiver struct {
	fired      <-chan wake.FirePayload
	board      *Board
	dispatcher Dispatcher
}

// NewReceiver wires the fired channel to the prompt board and the dispatcher.
func NewReceiver(fired <-chan wake.FirePayload, board *Board, dispatcher Dispatcher) *Receiver {
	return &Receiver{fired: fired, board: board, dispatcher: dispatcher}
}

// Run processes fire events until the context is cancelled. Call it on its
// own goroutine.
func (r *Receiver) Run(ctx context.Context) {
	for {
		select {
		case payload := <-r.fired:
			p := r.board.Open(payload)
			log.Printf("firing: alarm %s (%s at %s, snooze %d)",
				p.AlarmID, p.MedicineName, p.TimeString, p.SnoozeCount)
			if r.dispatcher != nil {
				r.dispatcher.Dispatch(payload)
			}
		case <-ctx.Done():
			return
		}
	}
}
