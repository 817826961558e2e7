package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bracketlab/tournament-platform/internal/platform/kvstore"
	qb "github.com/bracketlab/tournament-platform/internal/platform/querybuilder"
)

// KVRepository backs the kvstore port with the kv_entries table.
type KVRepository struct {
	db *sqlx.DB
}

func NewKVRepository(db *sqlx.DB) *KVRepository {
	return &KVRepository{db: db}
}

func (r *KVRepository) Get(ctx context.Context, scope kvstore.Scope, ownerID, key string) ([]byte, bool, error) {
	query, args, err := qb.Select("value").From("kv_entries").
		Where(
			qb.Eq("scope", string(scope)),
			qb.Eq("owner_id", ownerID),
			qb.Eq("key", key),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, false, fmt.Errorf("build select kv entry query: %w", err)
	}

	var value []byte
	if err := r.db.GetContext(ctx, &value, query, args...); err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("select kv entry: %w", err)
	}
	return value, true, nil
}

func (r *KVRepository) Set(ctx context.Context, scope kvstore.Scope, ownerID, key string, value []byte) error {
	query, args, err := qb.InsertInto("kv_entries").
		Columns("scope", "owner_id", "key", "value").
		Values(string(scope), ownerID, key, value).
		Suffix(`ON CONFLICT (scope, owner_id, key)
DO UPDATE SET
    value = EXCLUDED.value,
    updated_at = NOW()`).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert kv entry query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert kv entry: %w", err)
	}
	return nil
}

func (r *KVRepository) Delete(ctx context.Context, scope kvstore.Scope, ownerID, key string) error {
	query, args, err := qb.DeleteFrom("kv_entries").
		Where(
			qb.Eq("scope", string(scope)),
			qb.Eq("owner_id", ownerID),
			qb.Eq("key", key),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete kv entry query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete kv entry: %w", err)
	}
	return nil
}

func (r *KVRepository) ClearScope(ctx context.Context, scope kvstore.Scope, ownerID string) error {
	query, args, err := qb.DeleteFrom("kv_entries").
		Where(
			qb.Eq("scope", string(scope)),
			qb.Eq("owner_id", ownerID),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear kv scope query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear kv scope: %w", err)
	}
	return nil
}

func (r *KVRepository) Owners(ctx context.Context, scope kvstore.Scope, key string) ([]string, error) {
	query, args, err := qb.Select("owner_id").From("kv_entries").
		Where(
			qb.Eq("scope", string(scope)),
			qb.Eq("key", key),
		).
		OrderBy("owner_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select kv owners query: %w", err)
	}

	var owners []string
	if err := r.db.SelectContext(ctx, &owners, query, args...); err != nil {
		return nil, fmt.Errorf("select kv owners: %w", err)
	}
	return owners, nil
}
