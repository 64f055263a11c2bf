package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"medalarm-backend/internal/model"
	"medalarm-backend/internal/store"
	"medalarm-backend/internal/wake"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender, backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// message is the JSON body pushed to the device when an alarm fires.
type message struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	AlarmID     string `json:"alarm_id"`
	SnoozeCount int    `json:"snooze_count"`
}

// WorkerPool fans firing events out to the owning user's push subscriptions.
type WorkerPool struct {
	size    int
	jobs    chan wake.FirePayload
	subs    store.SubscriptionStore
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, subs store.SubscriptionStore, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan wake.FirePayload, size),
		subs:    subs,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("notification worker %d started", id)
	for {
		select {
		case payload := <-wp.jobs:
			wp.sendForFiring(ctx, payload)
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a firing for delivery. Implements firing.Dispatcher.
func (wp *WorkerPool) Dispatch(payload wake.FirePayload) {
	wp.jobs <- payload
}

// sendForFiring loads the user's subscriptions and pushes the alarm prompt to
// each of them.
func (wp *WorkerPool) sendForFiring(ctx context.Context, firing wake.FirePayload) {
	subscriptions, err := wp.subs.ListForUser(ctx, firing.UserID)
	if err != nil {
		log.Printf("error fetching subscriptions for user %s: %v", firing.UserID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	name := firing.MedicineName
	if name == "" {
		name = "İlaç"
	}

	body, err := json.Marshal(message{
		Title:       "💊 İlaç Zamanı!",
		Body:        fmt.Sprintf("%s - %s", name, firing.TimeString),
		AlarmID:     firing.AlarmID,
		SnoozeCount: firing.SnoozeCount,
	})
	if err != nil {
		log.Printf("error encoding notification for alarm %s: %v", firing.AlarmID, err)
		return
	}

	log.Printf("sending %d notifications for alarm %s", len(subscriptions), firing.AlarmID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, body)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("subscription for endpoint %s is expired, deleting", sub.Endpoint)
		if err := wp.subs.Delete(ctx, sub.Endpoint); err != nil {
			log.Printf("failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
