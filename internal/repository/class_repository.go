package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ClassRepository maintains the kelas (grade) and rombel (class group) reference tables.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// UpsertKelas inserts a kelas or renames an existing one.
func (r *ClassRepository) UpsertKelas(ctx context.Context, id, name string) error {
	const query = `INSERT INTO kelas (id, name) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`
	if _, err := r.db.ExecContext(ctx, query, id, name); err != nil {
		return fmt.Errorf("upsert kelas: %w", err)
	}
	return nil
}

// UpsertRombel inserts a rombel under kelasID or updates an existing one.
func (r *ClassRepository) UpsertRombel(ctx context.Context, id, kelasID, name string) error {
	const query = `INSERT INTO rombel (id, kelas_id, name) VALUES ($1, $2, $3) ON CONFLICT (id) DO UPDATE SET kelas_id = EXCLUDED.kelas_id, name = EXCLUDED.name`
	if _, err := r.db.ExecContext(ctx, query, id, kelasID, name); err != nil {
		return fmt.Errorf("upsert rombel: %w", err)
	}
	return nil
}
