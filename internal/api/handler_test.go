package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"medalarm-backend/internal/firing"
	"medalarm-backend/internal/lifecycle"
	"medalarm-backend/internal/model"
	"medalarm-backend/internal/registry"
	"medalarm-backend/internal/store"
	"medalarm-backend/internal/wake"
)

type testEnv struct {
	router   *gin.Engine
	registry registry.Registry
	timer    *wake.Service
	board    *firing.Board
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.PushSubscription{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	reg := registry.NewMemory()
	timer := wake.NewService(true, 16)
	board := firing.NewBoard(timer, time.Minute)
	svc := lifecycle.NewService(reg, timer)
	boot := lifecycle.NewBootReceiver(svc)
	subs := store.NewGormStore(db)

	handler := NewHandler(svc, reg, board, boot, subs, &webpush.Options{
		VAPIDPublicKey:  "test-public-key",
		VAPIDPrivateKey: "test-private-key",
	})

	r := gin.New()
	r.POST("/api/medicines", handler.PostMedicine)
	r.GET("/api/medicines", handler.GetMedicines)
	r.DELETE("/api/medicines/:id", handler.DeleteMedicine)
	r.GET("/api/alarms", handler.GetAlarms)
	r.GET("/api/prompts", handler.GetPrompts)
	r.POST("/api/prompts/:alarm_id/dismiss", handler.PostDismiss)
	r.POST("/api/prompts/:alarm_id/snooze", handler.PostSnooze)
	r.POST("/api/boot", handler.PostBoot)
	r.GET("/api/subscriptions", handler.GetSubscription)
	r.PUT("/api/subscriptions", handler.PutSubscription)
	r.DELETE("/api/subscriptions", handler.DeleteSubscription)
	r.GET("/api/vapid_public_key", handler.GetVAPIDPublicKey)

	return &testEnv{router: r, registry: reg, timer: timer, board: board}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	e.router.ServeHTTP(w, req)
	return w
}

const validSetup = `{
	"user_id": "user-1",
	"name": "Parol",
	"dosage": "500mg",
	"times_per_day": 3,
	"interval_hours": 8,
	"duration_days": 7,
	"start_hour": 8,
	"start_minute": 0
}`

func TestPostMedicine(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("POST", "/api/medicines", validSetup)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"alarms_requested":3`)
	assert.Contains(t, w.Body.String(), `"alarms_saved":3`)
	assert.Equal(t, 3, env.timer.ArmedCount())
}

func TestPostMedicine_InvalidSchedule(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("POST", "/api/medicines", `{
		"user_id": "user-1",
		"name": "Parol",
		"dosage": "500mg",
		"times_per_day": 11,
		"interval_hours": 8,
		"duration_days": 7
	}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, env.timer.ArmedCount())
}

func TestPostMedicine_MissingFields(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("POST", "/api/medicines", `{"user_id": "user-1"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMedicines(t *testing.T) {
	env := setupTestEnv(t)
	env.do("POST", "/api/medicines", validSetup)

	w := env.do("GET", "/api/medicines?user_id=user-1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Parol"`)

	w = env.do("GET", "/api/medicines", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteMedicine(t *testing.T) {
	env := setupTestEnv(t)
	w := env.do("POST", "/api/medicines", validSetup)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Medicine model.Medicine `json:"medicine"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = env.do("DELETE", "/api/medicines/"+created.Medicine.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, env.timer.ArmedCount())

	w = env.do("DELETE", "/api/medicines/no-such-medicine", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetAlarms(t *testing.T) {
	env := setupTestEnv(t)
	env.do("POST", "/api/medicines", validSetup)

	w := env.do("GET", "/api/alarms?user_id=user-1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"time_string":"08:00"`)

	w = env.do("GET", "/api/alarms", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPrompts(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("GET", "/api/prompts?user_id=user-1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	env.board.Open(wake.FirePayload{
		AlarmID:      "alarm-1",
		UserID:       "user-1",
		MedicineName: "Parol",
		TimeString:   "08:00",
	})

	w = env.do("GET", "/api/prompts?user_id=user-1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"alarm_id":"alarm-1"`)
}

func TestPostDismiss(t *testing.T) {
	env := setupTestEnv(t)
	env.board.Open(wake.FirePayload{AlarmID: "alarm-1", UserID: "user-1"})

	w := env.do("POST", "/api/prompts/alarm-1/dismiss", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do("POST", "/api/prompts/alarm-1/dismiss", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostSnooze(t *testing.T) {
	env := setupTestEnv(t)
	env.board.Open(wake.FirePayload{AlarmID: "alarm-1", UserID: "user-1", RequestCode: 1000})

	w := env.do("POST", "/api/prompts/alarm-1/snooze", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, env.timer.Armed(1000))
}

func TestPostSnooze_LimitReached(t *testing.T) {
	env := setupTestEnv(t)
	env.board.Open(wake.FirePayload{
		AlarmID:     "alarm-1",
		UserID:      "user-1",
		RequestCode: 1000,
		SnoozeCount: firing.MaxSnooze,
	})

	w := env.do("POST", "/api/prompts/alarm-1/snooze", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPostBoot(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("POST", "/api/boot", `{"user_id": "user-1"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = env.do("POST", "/api/boot", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscriptionRoundTrip(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("PUT", "/api/subscriptions", `{
		"endpoint": "https://push.example.com/abc",
		"user_id": "user-1",
		"p256dh": "key",
		"auth": "secret"
	}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = env.do("GET", "/api/subscriptions?endpoint=https://push.example.com/abc", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user-1"`)

	w = env.do("DELETE", "/api/subscriptions", `{"endpoint": "https://push.example.com/abc"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do("GET", "/api/subscriptions?endpoint=https://push.example.com/abc", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPutSubscription_BadRequest(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("PUT", "/api/subscriptions", `{"endpoint": ""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("GET", "/api/vapid_public_key", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"test-public-key"}`, w.Body.String())
}
