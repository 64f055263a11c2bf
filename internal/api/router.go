package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"medalarm-backend/internal/mw"
)

// RouterConfig tunes the router middleware.
type RouterConfig struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	CacheTTL        time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(handler *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.Default()

	if cfg.RateLimitPerSec <= 0 {
		cfg.RateLimitPerSec = 10
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 5
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	cacheStore := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Medicine setup and teardown.
		api.POST("/medicines", handler.PostMedicine)
		api.GET("/medicines", caching, handler.GetMedicines)
		api.DELETE("/medicines/:id", handler.DeleteMedicine)

		// Alarm schedule, as the registry sees it.
		api.GET("/alarms", handler.GetAlarms)

		// Firing prompts: dismiss or snooze.
		api.GET("/prompts", handler.GetPrompts)
		api.POST("/prompts/:alarm_id/dismiss", handler.PostDismiss)
		api.POST("/prompts/:alarm_id/snooze", handler.PostSnooze)

		// Device boot notification.
		api.POST("/boot", handler.PostBoot)

		// Push subscription management.
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
