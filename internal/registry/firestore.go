package registry

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"medalarm-backend/internal/model"
	"medalarm-backend/internal/schedule"
)

const (
	usersCollection     = "users"
	medicinesCollection = "medicines"
	alarmsCollection    = "alarms"
	countersCollection  = "counters"

	requestCodeDoc   = "requestCodes"
	firstRequestCode = 1000
)

// firestoreRegistry implements Registry on Cloud Firestore.
type firestoreRegistry struct {
	client *firestore.Client
}

// NewFirestore wraps an already-connected Firestore client. The caller owns
// the client's lifecycle.
func NewFirestore(client *firestore.Client) Registry {
	return &firestoreRegistry{client: client}
}

func (r *firestoreRegistry) CreateMedicine(ctx context.Context, m *model.Medicine) (string, error) {
	docRef := r.client.Collection(medicinesCollection).NewDoc()
	m.ID = docRef.ID
	m.Active = true
	m.CreatedAt = time.Now().UnixMilli()

	if _, err := docRef.Set(ctx, m); err != nil {
		return "", fmt.Errorf("while writing medicine: %w", err)
	}
	return docRef.ID, nil
}

func (r *firestoreRegistry) GetMedicine(ctx context.Context, id string) (*model.Medicine, error) {
	snap, err := r.client.Collection(medicinesCollection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrMedicineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("while reading medicine %s: %w", id, err)
	}

	m := &model.Medicine{}
	if err := snap.DataTo(m); err != nil {
		return nil, fmt.Errorf("while unmarshaling medicine %s: %w", id, err)
	}
	return m, nil
}

func (r *firestoreRegistry) ListActiveMedicinesForUser(ctx context.Context, userID string) ([]model.Medicine, error) {
	iter := r.client.Collection(medicinesCollection).
		Where("userId", "==", userID).
		Where("active", "==", true).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var medicines []model.Medicine
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("while listing medicines for user %s: %w", userID, err)
		}

		var m model.Medicine
		if err := snap.DataTo(&m); err != nil {
			return nil, fmt.Errorf("while unmarshaling medicine %s: %w", snap.Ref.ID, err)
		}
		medicines = append(medicines, m)
	}
	return medicines, nil
}

func (r *firestoreRegistry) FindMedicineByBarcode(ctx context.Context, barcode, userID string) (*model.Medicine, error) {
	iter := r.client.Collection(medicinesCollection).
		Where("barcode", "==", barcode).
		Where("userId", "==", userID).
		Where("active", "==", true).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("while looking up medicine by barcode: %w", err)
	}

	m := &model.Medicine{}
	if err := snap.DataTo(m); err != nil {
		return nil, fmt.Errorf("while unmarshaling medicine %s: %w", snap.Ref.ID, err)
	}
	return m, nil
}

func (r *firestoreRegistry) DeactivateMedicine(ctx context.Context, id string) error {
	_, err := r.client.Collection(medicinesCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "active", Value: false},
	})
	if status.Code(err) == codes.NotFound {
		return ErrMedicineNotFound
	}
	if err != nil {
		return fmt.Errorf("while deactivating medicine %s: %w", id, err)
	}
	return nil
}

// CreateAlarmsForMedicine writes one alarm document per dose time, in dose
// order. A failed write is recorded per item and the loop continues, so the
// caller sees exactly which doses were persisted.
func (r *firestoreRegistry) CreateAlarmsForMedicine(ctx context.Context, m *model.Medicine, doseTimes []schedule.DoseTime) (CreateAlarmsResult, error) {
	var result CreateAlarmsResult
	now := time.Now().UnixMilli()

	for i, dose := range doseTimes {
		requestCode, err := r.NextRequestCode(ctx)
		if err != nil {
			result.Failed = append(result.Failed, AlarmFailure{DoseIndex: i, Err: err})
			continue
		}

		docRef := r.client.Collection(alarmsCollection).NewDoc()
		alarm := model.Alarm{
			ID:           docRef.ID,
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

		if _, err := docRef.Set(ctx, &alarm); err != nil {
			result.Failed = append(result.Failed, AlarmFailure{
				DoseIndex: i,
				Err:       fmt.Errorf("while writing alarm: %w", err),
			})
			continue
		}
		result.Alarms = append(result.Alarms, alarm)
	}

	return result, nil
}

func (r *firestoreRegistry) ListActiveAlarmsForUser(ctx context.Context, userID string) ([]model.Alarm, error) {
	iter := r.client.Collection(alarmsCollection).
		Where("userId", "==", userID).
		Where("isActive", "==", true).
		OrderBy("hour", firestore.Asc).
		OrderBy("minute", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	return collectAlarms(iter, "user "+userID)
}

func (r *firestoreRegistry) ListActiveAlarmsForMedicine(ctx context.Context, medicineID string) ([]model.Alarm, error) {
	iter := r.client.Collection(alarmsCollection).
		Where("medicineId", "==", medicineID).
		Where("isActive", "==", true).
		Documents(ctx)
	defer iter.Stop()

	return collectAlarms(iter, "medicine "+medicineID)
}

func collectAlarms(iter *firestore.DocumentIterator, scope string) ([]model.Alarm, error) {
	var alarms []model.Alarm
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("while listing alarms for %s: %w", scope, err)
		}

		var a model.Alarm
		if err := snap.DataTo(&a); err != nil {
			return nil, fmt.Errorf("while unmarshaling alarm %s: %w", snap.Ref.ID, err)
		}
		alarms = append(alarms, a)
	}
	return alarms, nil
}

// DeactivateAlarmsForMedicine flips isActive on every alarm of the medicine
// in a single batch commit, so the bulk soft-delete is all-or-nothing.
func (r *firestoreRegistry) DeactivateAlarmsForMedicine(ctx context.Context, medicineID string) error {
	iter := r.client.Collection(alarmsCollection).
		Where("medicineId", "==", medicineID).
		Documents(ctx)
	defer iter.Stop()

	batch := r.client.Batch()
	count := 0
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("while listing alarms for medicine %s: %w", medicineID, err)
		}

		batch.Update(snap.Ref, []firestore.Update{{Path: "isActive", Value: false}})
		count++
	}

	if count == 0 {
		return nil
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("while deactivating %d alarms for medicine %s: %w", count, medicineID, err)
	}
	return nil
}

func (r *firestoreRegistry) GetUser(ctx context.Context, id string) (*model.User, error) {
	snap, err := r.client.Collection(usersCollection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("while reading user %s: %w", id, err)
	}

	u := &model.User{}
	if err := snap.DataTo(u); err != nil {
		return nil, fmt.Errorf("while unmarshaling user %s: %w", id, err)
	}
	return u, nil
}

func (r *firestoreRegistry) PutUser(ctx context.Context, u *model.User) error {
	if _, err := r.client.Collection(usersCollection).Doc(u.ID).Set(ctx, u); err != nil {
		return fmt.Errorf("while writing user %s: %w", u.ID, err)
	}
	return nil
}

func (r *firestoreRegistry) TouchLastLogin(ctx context.Context, userID string) error {
	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "lastLoginAt", Value: time.Now().UnixMilli()},
	})
	if status.Code(err) == codes.NotFound {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("while updating lastLoginAt for user %s: %w", userID, err)
	}
	return nil
}

// NextRequestCode increments the counters/requestCodes document inside a
// transaction and returns the previous value.
func (r *firestoreRegistry) NextRequestCode(ctx context.Context) (int, error) {
	ref := r.client.Collection(countersCollection).Doc(requestCodeDoc)

	var code int
	err := r.client.RunTransaction(ctx, func(ctx context.Context, txn *firestore.Transaction) error {
		next := firstRequestCode

		snap, err := txn.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return fmt.Errorf("while reading request-code counter: %w", err)
		}
		if snap != nil && snap.Exists() {
			v, err := snap.DataAt("next")
			if err != nil {
				return fmt.Errorf("while reading request-code counter value: %w", err)
			}
			next = int(v.(int64))
		}

		code = next
		return txn.Set(ref, map[string]any{"next": next + 1})
	})
	if err != nil {
		return 0, err
	}
	return code, nil
}
