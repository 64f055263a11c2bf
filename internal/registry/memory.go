package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"medalarm-backend/internal/model"
	"medalarm-backend/internal/schedule"
)

// memoryRegistry is an in-process Registry with the same observable semantics
// as the Firestore implementation (filters, ordering, counter allocation).
// It backs tests and the local development mode.
type memoryRegistry struct {
	mu        sync.Mutex
	medicines map[string]model.Medicine
	alarms    map[string]model.Alarm
	users     map[string]model.User

	nextID          int
	nextRequestCode int
}

// NewMemory returns an empty in-memory registry.
func NewMemory() Registry {
	return &memoryRegistry{
		medicines:       make(map[string]model.Medicine),
		alarms:          make(map[string]model.Alarm),
		users:           make(map[string]model.User),
		nextRequestCode: firstRequestCode,
	}
}

func (r *memoryRegistry) newID(prefix string) string {
	r.nextID++
	return fmt.Sprintf("%s-%04d", prefix, r.nextID)
}

func (r *memoryRegistry) CreateMedicine(_ context.Context, m *model.Medicine) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m.ID = r.newID("med")
	m.Active = true
	m.CreatedAt = time.Now().UnixMilli()
	r.medicines[m.ID] = *m
	return m.ID, nil
}

func (r *memoryRegistry) GetMedicine(_ context.Context, id string) (*model.Medicine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.medicines[id]
	if !ok {
		return nil, ErrMedicineNotFound
	}
	return &m, nil
}

func (r *memoryRegistry) ListActiveMedicinesForUser(_ context.Context, userID string) ([]model.Medicine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var medicines []model.Medicine
	for _, m := range r.medicines {
		if m.UserID == userID && m.Active {
			medicines = append(medicines, m)
		}
	}
	sort.Slice(medicines, func(i, j int) bool {
		return medicines[i].CreatedAt > medicines[j].CreatedAt
	})
	return medicines, nil
}

func (r *memoryRegistry) FindMedicineByBarcode(_ context.Context, barcode, userID string) (*model.Medicine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.medicines {
		if m.Barcode == barcode && m.UserID == userID && m.Active {
			found := m
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memoryRegistry) DeactivateMedicine(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.medicines[id]
	if !ok {
		return ErrMedicineNotFound
	}
	m.Active = false
	r.medicines[id] = m
	return nil
}

func (r *memoryRegistry) CreateAlarmsForMedicine(ctx context.Context, m *model.Medicine, doseTimes []schedule.DoseTime) (CreateAlarmsResult, error) {
	var result CreateAlarmsResult
	now := time.Now().UnixMilli()

	for i, dose := range doseTimes {
		requestCode, err := r.NextRequestCode(ctx)
		if err != nil {
			result.Failed = append(result.Failed, AlarmFailure{DoseIndex: i, Err: err})
			continue
		}

		r.mu.Lock()
		alarm := model.Alarm{
			ID:           r.newID("alarm"),
			MedicineID:   m.ID,
			MedicineName: m.Name,
			UserID:       m.UserID,
			Hour:         dose.Hour,
			Minute:       dose.Minute,
			TimeString:   dose.String(),
			Active:       true,
			RequestCode:  requestCode,
			CreatedAt:    now,
		}
		r.alarms[alarm.ID] = alarm
		r.mu.Unlock()

		result.Alarms = append(result.Alarms, alarm)
	}
	return result, nil
}

func (r *memoryRegistry) ListActiveAlarmsForUser(_ context.Context, userID string) ([]model.Alarm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var alarms []model.Alarm
	for _, a := range r.alarms {
		if a.UserID == userID && a.Active {
			alarms = append(alarms, a)
		}
	}
	sort.Slice(alarms, func(i, j int) bool {
		if alarms[i].Hour != alarms[j].Hour {
			return alarms[i].Hour < alarms[j].Hour
		}
		return alarms[i].Minute < alarms[j].Minute
	})
	return alarms, nil
}

func (r *memoryRegistry) ListActiveAlarmsForMedicine(_ context.Context, medicineID string) ([]model.Alarm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var alarms []model.Alarm
	for _, a := range r.alarms {
		if a.MedicineID == medicineID && a.Active {
			alarms = append(alarms, a)
		}
	}
	sort.Slice(alarms, func(i, j int) bool {
		return alarms[i].RequestCode < alarms[j].RequestCode
	})
	return alarms, nil
}

func (r *memoryRegistry) DeactivateAlarmsForMedicine(_ context.Context, medicineID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, a := range r.alarms {
		if a.MedicineID == medicineID {
			a.Active = false
			r.alarms[id] = a
		}
	}
	return nil
}

func (r *memoryRegistry) GetUser(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *memoryRegistry) PutUser(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[u.ID] = *u
	return nil
}

func (r *memoryRegistry) TouchLastLogin(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.LastLoginAt = time.Now().UnixMilli()
	r.users[userID] = u
	return nil
}

func (r *memoryRegistry) NextRequestCode(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := r.nextRequestCode
	r.nextRequestCode++
	return code, nil
}
