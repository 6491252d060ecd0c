package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/model"
)

// AuditRecorder appends booking history.  Recording is best effort: a
// failed append is logged and never reaches the caller of the audited
// operation.
type AuditRecorder struct {
	store LogStore
	log   *zap.Logger
	now   func() time.Time
}

func NewAuditRecorder(store LogStore, log *zap.Logger) *AuditRecorder {
	return &AuditRecorder{store: store, log: log, now: time.Now}
}

// Record appends one entry.  oldValue and newValue are JSON-encoded when
// not nil.
func (a *AuditRecorder) Record(ctx context.Context, bookingID string, entry model.LogEntryType, description string, oldValue, newValue any, actor model.Actor) {
	e, err := a.entry(bookingID, entry, description, oldValue, newValue, actor)
	if err == nil {
		err = a.store.Append(ctx, e)
	}
	if err != nil {
		a.log.Warn("audit: failed to record booking log",
			zap.String("booking_id", bookingID), zap.String("entry_type", string(entry)), zap.Error(err))
	}
}

func (a *AuditRecorder) entry(bookingID string, entry model.LogEntryType, description string, oldValue, newValue any, actor model.Actor) (*model.BookingLog, error) {
	e := &model.BookingLog{
		ID:          uuid.NewString(),
		BookingID:   bookingID,
		EntryType:   entry,
		Description: description,
		ActorType:   actor.Type,
		ActorID:     actor.ID,
		CreatedAt:   a.now().UTC(),
	}
	var err error
	if oldValue != nil {
		if e.OldValue, err = json.Marshal(oldValue); err != nil {
			return nil, err
		}
	}
	if newValue != nil {
		if e.NewValue, err = json.Marshal(newValue); err != nil {
			return nil, err
		}
	}
	return e, nil
}
