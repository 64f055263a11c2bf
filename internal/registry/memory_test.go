package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medalarm-backend/internal/model"
	"medalarm-backend/internal/schedule"
)

func newMedicine(userID string) *model.Medicine {
	return &model.Medicine{
		UserID:        userID,
		Name:          "Aspirin",
		Dosage:        "500mg",
		TimesPerDay:   3,
		IntervalHours: 8,
		DurationDays:  10,
	}
}

func TestMemoryRegistry_MedicineLifecycle(t *testing.T) {
	ctx := context.Background()
	reg := NewMemory()

	id, err := reg.CreateMedicine(ctx, newMedicine("user-1"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	m, err := reg.GetMedicine(ctx, id)
	require.NoError(t, err)
	assert.True(t, m.Active)
	assert.NotZero(t, m.CreatedAt)

	medicines, err := reg.ListActiveMedicinesForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, medicines, 1)

	require.NoError(t, reg.DeactivateMedicine(ctx, id))

	medicines, err = reg.ListActiveMedicinesForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, medicines, "deactivated medicine must not be listed")

	// The document itself survives the soft delete.
	m, err = reg.GetMedicine(ctx, id)
	require.NoError(t, err)
	assert.False(t, m.Active)
}

func TestMemoryRegistry_GetMedicine_NotFound(t *testing.T) {
	_, err := NewMemory().GetMedicine(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrMedicineNotFound)
}

func TestMemoryRegistry_FindMedicineByBarcode(t *testing.T) {
	ctx := context.Background()
	reg := NewMemory()

	med := newMedicine("user-1")
	med.Barcode = "8699000000001"
	id, err := reg.CreateMedicine(ctx, med)
	require.NoError(t, err)

	found, err := reg.FindMedicineByBarcode(ctx, "8699000000001", "user-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, id, found.ID)

	// Other user, other barcode, and deactivated records all miss.
	found, err = reg.FindMedicineByBarcode(ctx, "8699000000001", "user-2")
	require.NoError(t, err)
	assert.Nil(t, found)

	require.NoError(t, reg.DeactivateMedicine(ctx, id))
	found, err = reg.FindMedicineByBarcode(ctx, "8699000000001", "user-1")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestMemoryRegistry_CreateAlarms_AssignsUniqueRequestCodes(t *testing.T) {
	ctx := context.Background()
	reg := NewMemory()

	med := newMedicine("user-1")
	_, err := reg.CreateMedicine(ctx, med)
	require.NoError(t, err)

	result, err := reg.CreateAlarmsForMedicine(ctx, med, schedule.DoseTimes(8, 0, 3, 8))
	require.NoError(t, err)
	require.True(t, result.AllSaved())
	require.Len(t, result.Alarms, 3)

	seen := make(map[int]bool)
	for _, a := range result.Alarms {
		assert.GreaterOrEqual(t, a.RequestCode, 0)
		assert.False(t, seen[a.RequestCode], "request code %d reused", a.RequestCode)
		seen[a.RequestCode] = true
		assert.Equal(t, med.ID, a.MedicineID)
		assert.Equal(t, med.Name, a.MedicineName)
		assert.True(t, a.Active)
	}
	assert.Equal(t, "08:00", result.Alarms[0].TimeString)
	assert.Equal(t, "16:00", result.Alarms[1].TimeString)
	assert.Equal(t, "00:00", result.Alarms[2].TimeString)
}

func TestMemoryRegistry_ListActiveAlarmsForUser_OrderedByTime(t *testing.T) {
	ctx := context.Background()
	reg := NewMemory()

	med := newMedicine("user-1")
	_, err := reg.CreateMedicine(ctx, med)
	require.NoError(t, err)

	// 22:30, 06:30, 14:30 — listing must come back sorted by hour, minute.
	_, err = reg.CreateAlarmsForMedicine(ctx, med, schedule.DoseTimes(22, 30, 3, 8))
	require.NoError(t, err)

	alarms, err := reg.ListActiveAlarmsForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, alarms, 3)
	assert.Equal(t, "06:30", alarms[0].TimeString)
	assert.Equal(t, "14:30", alarms[1].TimeString)
	assert.Equal(t, "22:30", alarms[2].TimeString)
}

func TestMemoryRegistry_DeactivateAlarmsForMedicine(t *testing.T) {
	ctx := context.Background()
	reg := NewMemory()

	med := newMedicine("user-1")
	_, err := reg.CreateMedicine(ctx, med)
	require.NoError(t, err)
	other := newMedicine("user-1")
	_, err = reg.CreateMedicine(ctx, other)
	require.NoError(t, err)

	_, err = reg.CreateAlarmsForMedicine(ctx, med, schedule.DoseTimes(8, 0, 3, 8))
	require.NoError(t, err)
	_, err = reg.CreateAlarmsForMedicine(ctx, other, schedule.DoseTimes(9, 0, 2, 12))
	require.NoError(t, err)

	require.NoError(t, reg.DeactivateAlarmsForMedicine(ctx, med.ID))

	alarms, err := reg.ListActiveAlarmsForMedicine(ctx, med.ID)
	require.NoError(t, err)
	assert.Empty(t, alarms)

	// The other medicine's alarms are untouched.
	alarms, err = reg.ListActiveAlarmsForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, alarms, 2)
}

func TestMemoryRegistry_Users(t *testing.T) {
	ctx := context.Background()
	reg := NewMemory()

	_, err := reg.GetUser(ctx, "user-1")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, reg.PutUser(ctx, &model.User{ID: "user-1", Email: "a@example.com"}))
	require.NoError(t, reg.TouchLastLogin(ctx, "user-1"))

	u, err := reg.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.NotZero(t, u.LastLoginAt)
}

func TestMemoryRegistry_NextRequestCode_Monotonic(t *testing.T) {
	ctx := context.Background()
	reg := NewMemory()

	prev := -1
	for i := 0; i < 50; i++ {
		code, err := reg.NextRequestCode(ctx)
		require.NoError(t, err)
		assert.Greater(t, code, prev)
		prev = code
	}
}
