package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pointku-api/internal/models"
)

// UserRepository reads accounts and their cached point totals. It never writes users.points.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByUsername returns the user with the given login name.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	const query = `SELECT id, name, username, password_hash, role, rombel_id, photo, points, created_at, updated_at FROM users WHERE username = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &user, nil
}

// Create inserts a new account. The points column is always initialised to zero.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Points = 0

	const query = `INSERT INTO users (id, name, username, password_hash, role, rombel_id, photo, points, created_at, updated_at)
VALUES (:id, :name, :username, :password_hash, :role, :rombel_id, :photo, :points, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Standing returns a student's cached total together with the number of history entries.
func (r *UserRepository) Standing(ctx context.Context, studentID string) (*models.StudentStanding, error) {
	const query = `SELECT s.id, s.name, r.name AS rombel_name, k.name AS kelas_name, s.points,
	(SELECT COUNT(*) FROM point_history ph WHERE ph.student_id = s.id) AS entry_count
FROM users s
LEFT JOIN rombel r ON r.id = s.rombel_id
LEFT JOIN kelas k ON k.id = r.kelas_id
WHERE s.id = $1 AND s.role = $2`
	var standing models.StudentStanding
	if err := r.db.GetContext(ctx, &standing, query, studentID, models.RoleStudent); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("student standing: %w", err)
	}
	return &standing, nil
}

// Ranking lists students by points descending, ties broken by name.
func (r *UserRepository) Ranking(ctx context.Context, filter models.RankingFilter) ([]models.RankingEntry, error) {
	query := psql.Select("s.id", "s.name", "s.photo", "r.name AS rombel_name", "k.name AS kelas_name", "s.points").
		From("users s").
		LeftJoin("rombel r ON r.id = s.rombel_id").
		LeftJoin("kelas k ON k.id = r.kelas_id").
		Where(sq.Eq{"s.role": string(models.RoleStudent)})
	if filter.RombelID != "" {
		query = query.Where(sq.Eq{"s.rombel_id": filter.RombelID})
	}
	if filter.KelasID != "" {
		query = query.Where(sq.Eq{"r.kelas_id": filter.KelasID})
	}
	query = query.OrderBy("s.points DESC", "s.name ASC")
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ranking query: %w", err)
	}
	entries := make([]models.RankingEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, stmt, args...); err != nil {
		return nil, fmt.Errorf("list ranking: %w", err)
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// Drift lists students whose users.points differs from the sum of their history entries.
func (r *UserRepository) Drift(ctx context.Context) ([]models.PointDrift, error) {
	const query = `SELECT s.id, s.name, s.points AS cached, COALESCE(SUM(ph.points), 0) AS ledger
FROM users s
LEFT JOIN point_history ph ON ph.student_id = s.id
WHERE s.role = $1
GROUP BY s.id, s.name, s.points
HAVING s.points <> COALESCE(SUM(ph.points), 0)
ORDER BY s.id`
	drifts := make([]models.PointDrift, 0)
	if err := r.db.SelectContext(ctx, &drifts, query, models.RoleStudent); err != nil {
		return nil, fmt.Errorf("point drift: %w", err)
	}
	return drifts, nil
}
