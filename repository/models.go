package repository

import (
	"time"

	authflow "github.com/goliatone/go-authflow"
	"github.com/uptrace/bun"
)

// SecretModel is one namespaced secret row.
type SecretModel struct {
	bun.BaseModel `bun:"table:authflow_secrets"`

	Namespace string    `bun:"namespace,pk"`
	Key       string    `bun:"secret_key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// EventModel is a persisted AuthEvent.
type EventModel struct {
	bun.BaseModel `bun:"table:authflow_events"`

	ID         string             `bun:"id,pk"`
	Sequence   int64              `bun:"sequence,notnull"`
	Kind       string             `bun:"kind,notnull"`
	Operation  string             `bun:"operation,notnull"`
	AttemptID  string             `bun:"attempt_id,notnull"`
	Method     string             `bun:"method"`
	IdentityID string             `bun:"identity_id"`
	Identity   *authflow.Identity `bun:"identity,type:json,nullzero"`
	Error      string             `bun:"error"`
	Metadata   map[string]any     `bun:"metadata,type:json,nullzero"`
	OccurredAt time.Time          `bun:"occurred_at,notnull"`
}

func eventModelFrom(id string, event authflow.AuthEvent) *EventModel {
	m := &EventModel{
		ID:         id,
		Sequence:   int64(event.Sequence),
		Kind:       string(event.Kind),
		Operation:  string(event.Kind.Operation()),
		AttemptID:  event.AttemptID,
		Error:      event.Error,
		Metadata:   event.Metadata,
		OccurredAt: event.OccurredAt.UTC(),
	}
	if !event.Method.IsZero() {
		m.Method = event.Method.String()
	}
	if event.Identity != nil {
		identity := *event.Identity
		m.Identity = &identity
		m.IdentityID = identity.ID
	}
	return m
}

// Event converts the row back into an AuthEvent.
func (m *EventModel) Event() authflow.AuthEvent {
	event := authflow.AuthEvent{
		Kind:       authflow.EventKind(m.Kind),
		AttemptID:  m.AttemptID,
		Sequence:   uint64(m.Sequence),
		Identity:   m.Identity,
		Error:      m.Error,
		OccurredAt: m.OccurredAt,
		Metadata:   m.Metadata,
	}
	if method, ok := authflow.ParseAuthMethod(m.Method); ok {
		event.Method = method
	}
	return event
}
