package repository

import (
	"context"
	"time"

	authflow "github.com/goliatone/go-authflow"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const defaultRecentLimit = 50

// EventRepository stores AuthEvents. It implements authflow.ActivitySink so
// it can be fed by RelayActivity.
type EventRepository struct {
	db bun.IDB
}

var _ authflow.ActivitySink = (*EventRepository)(nil)

func NewEventRepository(db bun.IDB) *EventRepository {
	return &EventRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *EventRepository) WithTx(tx bun.Tx) *EventRepository {
	return &EventRepository{db: tx}
}

// Record implements authflow.ActivitySink.
func (r *EventRepository) Record(ctx context.Context, event authflow.AuthEvent) error {
	_, err := r.db.NewInsert().
		Model(eventModelFrom(uuid.NewString(), event)).
		Exec(ctx)
	return err
}

// ByAttempt returns the events of one attempt in emission order.
func (r *EventRepository) ByAttempt(ctx context.Context, attemptID string) ([]authflow.AuthEvent, error) {
	var models []EventModel
	err := r.db.NewSelect().
		Model(&models).
		Where("attempt_id = ?", attemptID).
		Order("sequence ASC", "occurred_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toEvents(models), nil
}

// Recent returns the newest events first. A non-positive limit uses the
// default page size.
func (r *EventRepository) Recent(ctx context.Context, limit int) ([]authflow.AuthEvent, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	var models []EventModel
	err := r.db.NewSelect().
		Model(&models).
		Order("occurred_at DESC", "sequence DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toEvents(models), nil
}

// Prune deletes events that occurred before cutoff and returns how many
// rows were removed.
func (r *EventRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*EventModel)(nil)).
		Where("occurred_at < ?", cutoff.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func toEvents(models []EventModel) []authflow.AuthEvent {
	out := make([]authflow.AuthEvent, len(models))
	for i := range models {
		out[i] = models[i].Event()
	}
	return out
}
