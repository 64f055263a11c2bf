// Package store persists device-local push subscriptions in the relational
// database. The alarm schedule itself lives in the document-store registry.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"medalarm-backend/internal/model"
)

// ErrSubscriptionNotFound is returned by Get for an unknown endpoint.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// SubscriptionStore defines the push-subscription persistence operations.
type SubscriptionStore interface {
	Upsert(ctx context.Context, sub *model.PushSubscription) error
	Get(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	Delete(ctx context.Context, endpoint string) error
	ListForUser(ctx context.Context, userID string) ([]model.PushSubscription, error)
}

// gormStore implements SubscriptionStore using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed subscription store.
func NewGormStore(db *gorm.DB) SubscriptionStore {
	return &gormStore{db: db}
}

// Upsert creates the subscription or refreshes its keys and owner when the
// endpoint is already registered.
func (s *gormStore) Upsert(ctx context.Context, sub *model.PushSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth"}),
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("failed to upsert subscription %s: %w", sub.Endpoint, err)
	}
	return nil
}

func (s *gormStore) Get(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription %s: %w", endpoint, err)
	}
	return &sub, nil
}

func (s *gormStore) Delete(ctx context.Context, endpoint string) error {
	if err := s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
		return fmt.Errorf("failed to delete subscription %s: %w", endpoint, err)
	}
	return nil
}

func (s *gormStore) ListForUser(ctx context.Context, userID string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions for user %s: %w", userID, err)
	}
	return subs, nil
}
