// Package repository persists secrets and auth events with Bun.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// Manager groups the repositories sharing one database.
type Manager struct {
	db      *bun.DB
	secrets *SecretRepository
	events  *EventRepository
}

// NewManager wires the repositories over db. Secrets are scoped to
// namespace.
func NewManager(db *bun.DB, namespace string) *Manager {
	return &Manager{
		db:      db,
		secrets: NewSecretRepository(db, namespace),
		events:  NewEventRepository(db),
	}
}

func (m *Manager) Validate() error {
	if m.db == nil {
		return errors.New("repository db should be initialized")
	}

	if m.secrets == nil {
		return errors.New("repository secrets should be initialized")
	}

	if m.events == nil {
		return errors.New("repository events should be initialized")
	}

	return nil
}

func (m *Manager) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

// CreateSchema creates the tables and indexes if they do not exist.
func (m *Manager) CreateSchema(ctx context.Context) error {
	models := []any{(*SecretModel)(nil), (*EventModel)(nil)}
	for _, model := range models {
		if _, err := m.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}

	_, err := m.db.NewCreateIndex().
		Model((*EventModel)(nil)).
		Index("idx_authflow_events_attempt").
		Column("attempt_id").
		IfNotExists().
		Exec(ctx)
	return err
}

func (m *Manager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m *Manager) Secrets() *SecretRepository {
	return m.secrets
}

func (m *Manager) Events() *EventRepository {
	return m.events
}
