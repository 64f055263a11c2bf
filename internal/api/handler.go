package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"medalarm-backend/internal/firing"
	"medalarm-backend/internal/lifecycle"
	"medalarm-backend/internal/registry"
	"medalarm-backend/internal/store"
)

// Handler holds shared dependencies for API handlers. Everything is injected
// at construction; there is no package-level state.
type Handler struct {
	lifecycle *lifecycle.Service
	registry  registry.Registry
	prompts   *firing.Board
	boot      *lifecycle.BootReceiver
	subs      store.SubscriptionStore
	webpush   *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(
	svc *lifecycle.Service,
	reg registry.Registry,
	prompts *firing.Board,
	boot *lifecycle.BootReceiver,
	subs store.SubscriptionStore,
	webpushOptions *webpush.Options,
) *Handler {
	return &Handler{
		lifecycle: svc,
		registry:  reg,
		prompts:   prompts,
		boot:      boot,
		subs:      subs,
		webpush:   webpushOptions,
	}
}
