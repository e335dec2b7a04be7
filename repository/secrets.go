package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goliatone/go-authflow/secretstore"
	"github.com/uptrace/bun"
)

// SecretRepository is a secretstore.Storage backed by a SQL table. Rows are
// scoped to a namespace so several stores can share the table.
type SecretRepository struct {
	db        bun.IDB
	namespace string
	now       func() time.Time
}

var _ secretstore.Storage = (*SecretRepository)(nil)

// NewSecretRepository creates a repository for namespace.
func NewSecretRepository(db bun.IDB, namespace string) *SecretRepository {
	return &SecretRepository{
		db:        db,
		namespace: namespace,
		now:       time.Now,
	}
}

// WithTx returns a copy bound to tx.
func (r *SecretRepository) WithTx(tx bun.Tx) *SecretRepository {
	clone := *r
	clone.db = tx
	return &clone
}

func (r *SecretRepository) Write(ctx context.Context, key, value string) error {
	model := &SecretModel{
		Namespace: r.namespace,
		Key:       key,
		Value:     value,
		UpdatedAt: r.now().UTC(),
	}

	_, err := r.db.NewInsert().
		Model(model).
		On("CONFLICT (namespace, secret_key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return secretstore.StorageError("write", key, err)
	}
	return nil
}

func (r *SecretRepository) Read(ctx context.Context, key string) (string, bool, error) {
	var model SecretModel
	err := r.db.NewSelect().
		Model(&model).
		Where("namespace = ? AND secret_key = ?", r.namespace, key).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, secretstore.StorageError("read", key, err)
	}
	return model.Value, true, nil
}

func (r *SecretRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.NewDelete().
		Model((*SecretModel)(nil)).
		Where("namespace = ? AND secret_key = ?", r.namespace, key).
		Exec(ctx)
	if err != nil {
		return secretstore.StorageError("delete", key, err)
	}
	return nil
}

func (r *SecretRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.NewDelete().
		Model((*SecretModel)(nil)).
		Where("namespace = ?", r.namespace).
		Exec(ctx)
	if err != nil {
		return secretstore.StorageError("delete_all", "*", err)
	}
	return nil
}
