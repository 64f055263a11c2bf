// Package lifecycle orchestrates the alarm lifecycle: medicine setup fans out
// into alarm records and armed wake timers, deletion tears both down, and the
// boot flow rebuilds the timer state from the registry.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"medalarm-backend/internal/model"
	"medalarm-backend/internal/registry"
	"medalarm-backend/internal/schedule"
	"medalarm-backend/internal/wake"
)

// ErrInvalidSetup wraps every setup validation failure.
var ErrInvalidSetup = errors.New("invalid medicine setup")

// SetupRequest carries the user's dosing plan plus the opaque outputs of the
// scan/search collaborators (barcode, resolved name, image URL).
type SetupRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	Barcode     string `json:"barcode"`
	Name        string `json:"name" binding:"required"`
	Dosage      string `json:"dosage" binding:"required"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`

	TimesPerDay   int `json:"times_per_day"`
	IntervalHours int `json:"interval_hours"`
	DurationDays  int `json:"duration_days"`
	StartHour     int `json:"start_hour"`
	StartMinute   int `json:"start_minute"`
}

func (r *SetupRequest) validate() error {
	switch {
	case r.TimesPerDay < 1 || r.TimesPerDay > 10:
		return fmt.Errorf("%w: times_per_day must be between 1 and 10", ErrInvalidSetup)
	case r.IntervalHours < 1 || r.IntervalHours > 24:
		return fmt.Errorf("%w: interval_hours must be between 1 and 24", ErrInvalidSetup)
	case r.DurationDays < 1 || r.DurationDays > 365:
		return fmt.Errorf("%w: duration_days must be between 1 and 365", ErrInvalidSetup)
	case r.StartHour < 0 || r.StartHour > 23:
		return fmt.Errorf("%w: start_hour must be between 0 and 23", ErrInvalidSetup)
	case r.StartMinute < 0 || r.StartMinute > 59:
		return fmt.Errorf("%w: start_minute must be between 0 and 59", ErrInvalidSetup)
	}
	return nil
}

// SetupResult reports what the setup actually persisted and armed. When
// AlarmsSaved < AlarmsRequested the schedule is partially armed; the mismatch
// is surfaced to the user and no compensation is attempted.
type SetupResult struct {
	Medicine        model.Medicine `json:"medicine"`
	Alarms          []model.Alarm  `json:"alarms"`
	AlarmsRequested int            `json:"alarms_requested"`
	AlarmsSaved     int            `json:"alarms_saved"`
}

// Service owns the medicine/alarm lifecycle. All dependencies are injected;
// there are no package-level singletons.
type Service struct {
	registry registry.Registry
	timer    wake.Timer
	clock    func() time.Time
}

// NewService wires the lifecycle service.
func NewService(reg registry.Registry, timer wake.Timer) *Service {
	return &Service{registry: reg, timer: timer, clock: time.Now}
}

// SetupMedicine persists the medicine, creates one alarm per dose time and
// arms a wake trigger per persisted alarm, in dose order. Alarm writes and
// arms are not atomic across doses: a failure mid-loop leaves earlier doses
// armed, which the result makes visible.
func (s *Service) SetupMedicine(ctx context.Context, req SetupRequest) (*SetupResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	now := s.clock()
	medicine := &model.Medicine{
		UserID:        req.UserID,
		Barcode:       req.Barcode,
		Name:          req.Name,
		Dosage:        req.Dosage,
		ImageURL:      req.ImageURL,
		Description:   req.Description,
		TimesPerDay:   req.TimesPerDay,
		StartTime:     schedule.DoseTime{Hour: req.StartHour, Minute: req.StartMinute}.String(),
		IntervalHours: req.IntervalHours,
		DurationDays:  req.DurationDays,
		StartDate:     now.UnixMilli(),
	}

	if _, err := s.registry.CreateMedicine(ctx, medicine); err != nil {
		return nil, fmt.Errorf("failed to save medicine: %w", err)
	}

	doseTimes := schedule.DoseTimes(req.StartHour, req.StartMinute, req.TimesPerDay, req.IntervalHours)
	created, err := s.registry.CreateAlarmsForMedicine(ctx, medicine, doseTimes)
	if err != nil {
		return nil, fmt.Errorf("failed to create alarms for medicine %s: %w", medicine.ID, err)
	}
	for _, failure := range created.Failed {
		log.Printf("lifecycle: alarm for dose %d of medicine %s not saved: %v",
			failure.DoseIndex, medicine.ID, failure.Err)
	}

	for _, alarm := range created.Alarms {
		s.armAlarm(now, alarm)
	}

	return &SetupResult{
		Medicine:        *medicine,
		Alarms:          created.Alarms,
		AlarmsRequested: len(doseTimes),
		AlarmsSaved:     len(created.Alarms),
	}, nil
}

// DeleteMedicine soft-deletes the medicine and its alarms. Ordering matters:
// timers are cancelled before the registry update, so no armed trigger
// outlives its registry record.
func (s *Service) DeleteMedicine(ctx context.Context, medicineID string) error {
	alarms, err := s.registry.ListActiveAlarmsForMedicine(ctx, medicineID)
	if err != nil {
		return fmt.Errorf("failed to list alarms for medicine %s: %w", medicineID, err)
	}

	for _, alarm := range alarms {
		s.timer.Cancel(alarm.RequestCode)
	}

	if err := s.registry.DeactivateAlarmsForMedicine(ctx, medicineID); err != nil {
		return fmt.Errorf("failed to deactivate alarms for medicine %s: %w", medicineID, err)
	}
	if err := s.registry.DeactivateMedicine(ctx, medicineID); err != nil {
		return fmt.Errorf("failed to deactivate medicine %s: %w", medicineID, err)
	}
	return nil
}

// RescheduleAfterBoot re-arms every active alarm of the user from the
// registry. A registry read failure skips the reschedule for this boot; the
// registry stays the source of truth and only timeliness is lost.
func (s *Service) RescheduleAfterBoot(ctx context.Context, userID string) (int, error) {
	alarms, err := s.registry.ListActiveAlarmsForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read alarms for user %s: %w", userID, err)
	}

	now := s.clock()
	for _, alarm := range alarms {
		s.armAlarm(now, alarm)
	}
	return len(alarms), nil
}

// armAlarm arms one exact one-shot at the alarm's next occurrence, with a
// fresh snooze budget.
func (s *Service) armAlarm(now time.Time, alarm model.Alarm) {
	fireAt := schedule.NextOccurrence(now, alarm.Hour, alarm.Minute)
	s.timer.ArmExactOneShot(alarm.RequestCode, fireAt.UnixMilli(), wake.FirePayload{
		AlarmID:      alarm.ID,
		UserID:       alarm.UserID,
		MedicineName: alarm.MedicineName,
		TimeString:   alarm.TimeString,
		SnoozeCount:  0,
		RequestCode:  alarm.RequestCode,
	})
}
