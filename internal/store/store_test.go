package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"medalarm-backend/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.PushSubscription{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func TestGormStore_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(newTestDB(t))

	sub := &model.PushSubscription{
		Endpoint: "https://push.example.com/ep1",
		UserID:   "user-1",
		P256DH:   "p256dh-1",
		Auth:     "auth-1",
	}
	require.NoError(t, s.Upsert(ctx, sub))

	got, err := s.Get(ctx, sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "p256dh-1", got.P256DH)

	// Re-registering the same endpoint replaces keys and owner.
	require.NoError(t, s.Upsert(ctx, &model.PushSubscription{
		Endpoint: sub.Endpoint,
		UserID:   "user-2",
		P256DH:   "p256dh-2",
		Auth:     "auth-2",
	}))

	got, err = s.Get(ctx, sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, "user-2", got.UserID)
	assert.Equal(t, "p256dh-2", got.P256DH)

	subs, err := s.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestGormStore_Get_NotFound(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	_, err := s.Get(context.Background(), "https://push.example.com/missing")
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestGormStore_ListForUser(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(newTestDB(t))

	for i, endpoint := range []string{"https://push/1", "https://push/2"} {
		require.NoError(t, s.Upsert(ctx, &model.PushSubscription{
			Endpoint: endpoint,
			UserID:   "user-1",
			P256DH:   "key",
			Auth:     "auth",
		}), "sub %d", i)
	}
	require.NoError(t, s.Upsert(ctx, &model.PushSubscription{
		Endpoint: "https://push/3",
		UserID:   "user-2",
		P256DH:   "key",
		Auth:     "auth",
	}))

	subs, err := s.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

func TestGormStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewGormStore(newTestDB(t))

	require.NoError(t, s.Upsert(ctx, &model.PushSubscription{
		Endpoint: "https://push/1",
		UserID:   "user-1",
		P256DH:   "key",
		Auth:     "auth",
	}))
	require.NoError(t, s.Delete(ctx, "https://push/1"))

	_, err := s.Get(ctx, "https://push/1")
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)

	// Deleting an unknown endpoint is not an error.
	assert.NoError(t, s.Delete(ctx, "https://push/unknown"))
}

// A helper function to create a mock database connection for error-path tests.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormStore_Get_QueryError(t *testing.T) {
	gormDB, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "push_subscriptions"`).
		WillReturnError(errors.New("connection refused"))

	s := NewGormStore(gormDB)
	_, err := s.Get(context.Background(), "https://push/1")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSubscriptionNotFound)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_ListForUser_QueryError(t *testing.T) {
	gormDB, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT (.+) FROM "push_subscriptions"`).
		WillReturnError(errors.New("connection refused"))

	s := NewGormStore(gormDB)
	_, err := s.ListForUser(context.Background(), "user-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list subscriptions")
	assert.NoError(t, mock.ExpectationsWereMet())
}
