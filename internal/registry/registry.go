// Package registry is the source of truth for users, medicines and alarms.
// The wake-timer state is only a projection of what this store says is active
// and is rebuilt from it after a reboot.
package registry

import (
	"context"
	"errors"

	"medalarm-backend/internal/model"
	"medalarm-backend/internal/schedule"
)

var (
	ErrMedicineNotFound = errors.New("medicine not found")
	ErrUserNotFound     = errors.New("user not found")
)

// AlarmFailure reports one dose whose alarm document could not be written.
type AlarmFailure struct {
	DoseIndex int
	Err       error
}

// CreateAlarmsResult carries the per-item outcome of CreateAlarmsForMedicine.
// Partial success is possible: some alarm documents may have been written
// while later ones failed. The caller decides whether to proceed with a
// partially armed schedule; no compensation is attempted here.
type CreateAlarmsResult struct {
	Alarms []model.Alarm
	Failed []AlarmFailure
}

// AllSaved reports whether every requested alarm was persisted.
func (r CreateAlarmsResult) AllSaved() bool {
	return len(r.Failed) == 0
}

// Registry is the document-store client. The Firestore implementation is used
// in production; the memory implementation serves tests and local development.
type Registry interface {
	// Medicines.
	CreateMedicine(ctx context.Context, m *model.Medicine) (string, error)
	GetMedicine(ctx context.Context, id string) (*model.Medicine, error)
	ListActiveMedicinesForUser(ctx context.Context, userID string) ([]model.Medicine, error)
	FindMedicineByBarcode(ctx context.Context, barcode, userID string) (*model.Medicine, error)
	DeactivateMedicine(ctx context.Context, id string) error

	// Alarms.
	CreateAlarmsForMedicine(ctx context.Context, m *model.Medicine, doseTimes []schedule.DoseTime) (CreateAlarmsResult, error)
	ListActiveAlarmsForUser(ctx context.Context, userID string) ([]model.Alarm, error)
	ListActiveAlarmsForMedicine(ctx context.Context, medicineID string) ([]model.Alarm, error)
	DeactivateAlarmsForMedicine(ctx context.Context, medicineID string) error

	// Users.
	GetUser(ctx context.Context, id string) (*model.User, error)
	PutUser(ctx context.Context, u *model.User) error
	TouchLastLogin(ctx context.Context, userID string) error

	// NextRequestCode allocates the next wake-timer identity from a stored
	// counter. Codes are non-negative and never reused, so two alarms cannot
	// silently overwrite each other's pending timer.
	NextRequestCode(ctx context.Context) (int, error)
}
