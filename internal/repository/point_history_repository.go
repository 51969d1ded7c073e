package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pointku-api/internal/models"
)

// Sentinel errors returned by the point history store.
var (
	ErrEntryNotFound = errors.New("point history entry not found")
	ErrUserNotFound  = errors.New("user not found")
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var historyDetailColumns = []string{
	"ph.id", "ph.student_id", "ph.issuer_id", "ph.points", "ph.reason", "ph.event_date", "ph.created_at",
	"s.name AS student_name", "s.photo AS student_photo", "g.name AS issuer_name",
	"r.name AS rombel_name", "k.name AS kelas_name",
}

const (
	selectRoleQuery    = `SELECT role FROM users WHERE id = $1`
	lockEntryQuery     = `SELECT id, student_id, issuer_id, points, reason, event_date, created_at FROM point_history WHERE id = $1 FOR UPDATE`
	insertEntryQuery   = `INSERT INTO point_history (id, student_id, issuer_id, points, reason, event_date, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	updateEntryQuery   = `UPDATE point_history SET student_id = $1, issuer_id = $2, points = $3, reason = $4, event_date = $5 WHERE id = $6`
	deleteEntryQuery   = `DELETE FROM point_history WHERE id = $1`
	adjustPointsQuery  = `UPDATE users SET points = points + $1, updated_at = $2 WHERE id = $3 AND role = $4`
)

// PointLedgerTx is the set of statements a ledger operation may run inside one transaction.
type PointLedgerTx interface {
	UserRole(ctx context.Context, userID string) (models.UserRole, error)
	LockEntry(ctx context.Context, id string) (*models.PointHistoryEntry, error)
	InsertEntry(ctx context.Context, entry *models.PointHistoryEntry) error
	UpdateEntry(ctx context.Context, entry *models.PointHistoryEntry) error
	DeleteEntry(ctx context.Context, id string) error
	AdjustPoints(ctx context.Context, studentID string, delta int) error
}

// PointHistoryRepository persists the point history log and keeps users.points in step with it.
type PointHistoryRepository struct {
	db *sqlx.DB
}

// NewPointHistoryRepository constructs the repository.
func NewPointHistoryRepository(db *sqlx.DB) *PointHistoryRepository {
	return &PointHistoryRepository{db: db}
}

func (r *PointHistoryRepository) detailQuery() sq.SelectBuilder {
	return psql.Select(historyDetailColumns...).
		From("point_history ph").
		LeftJoin("users s ON s.id = ph.student_id").
		LeftJoin("users g ON g.id = ph.issuer_id").
		LeftJoin("rombel r ON r.id = s.rombel_id").
		LeftJoin("kelas k ON k.id = r.kelas_id")
}

// List returns entries matching filter, newest event date first and newest insert first
// within a date. Results are truncated only when filter.Limit is set.
func (r *PointHistoryRepository) List(ctx context.Context, filter models.PointHistoryFilter) ([]models.PointHistoryDetail, error) {
	query := r.detailQuery()
	if filter.StudentID != "" {
		query = query.Where(sq.Eq{"ph.student_id": filter.StudentID})
	}
	if filter.IssuerID != "" {
		query = query.Where(sq.Eq{"ph.issuer_id": filter.IssuerID})
	}
	if filter.RombelID != "" {
		query = query.Where(sq.Eq{"s.rombel_id": filter.RombelID})
	}
	if filter.KelasID != "" {
		query = query.Where(sq.Eq{"r.kelas_id": filter.KelasID})
	}
	if filter.DateFrom != nil {
		query = query.Where(sq.GtOrEq{"ph.event_date": filter.DateFrom.String()})
	}
	if filter.DateTo != nil {
		query = query.Where(sq.LtOrEq{"ph.event_date": filter.DateTo.String()})
	}

	// Entries sharing a created_at microsecond fall back to id, which is time-ordered.
	query = query.OrderBy("ph.event_date DESC", "ph.created_at DESC", "ph.id DESC")
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build point history query: %w", err)
	}
	entries := make([]models.PointHistoryDetail, 0)
	if err := r.db.SelectContext(ctx, &entries, stmt, args...); err != nil {
		return nil, fmt.Errorf("list point history: %w", err)
	}
	return entries, nil
}

// FindByID returns a single entry with its joined names.
func (r *PointHistoryRepository) FindByID(ctx context.Context, id string) (*models.PointHistoryDetail, error) {
	stmt, args, err := r.detailQuery().Where(sq.Eq{"ph.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build point history query: %w", err)
	}
	var entry models.PointHistoryDetail
	if err := r.db.GetContext(ctx, &entry, stmt, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("get point history: %w", err)
	}
	return &entry, nil
}

// WithinTx runs fn inside a single READ COMMITTED transaction. Entry rows are locked
// with FOR UPDATE and totals change through single-row increments, so concurrent
// writers to the same student serialize on row locks. Any error or panic rolls back.
func (r *PointHistoryRepository) WithinTx(ctx context.Context, fn func(PointLedgerTx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin point ledger transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&ledgerTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit point ledger transaction: %w", err)
	}
	return nil
}

type ledgerTx struct {
	tx *sqlx.Tx
}

func (t *ledgerTx) UserRole(ctx context.Context, userID string) (models.UserRole, error) {
	var role models.UserRole
	if err := t.tx.GetContext(ctx, &role, selectRoleQuery, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("lookup user role: %w", err)
	}
	return role, nil
}

func (t *ledgerTx) LockEntry(ctx context.Context, id string) (*models.PointHistoryEntry, error) {
	var entry models.PointHistoryEntry
	if err := t.tx.GetContext(ctx, &entry, lockEntryQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("lock point history entry: %w", err)
	}
	return &entry, nil
}

func (t *ledgerTx) InsertEntry(ctx context.Context, entry *models.PointHistoryEntry) error {
	if _, err := t.tx.ExecContext(ctx, insertEntryQuery,
		entry.ID, entry.StudentID, entry.IssuerID, entry.Points, entry.Reason, entry.EventDate, entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert point history entry: %w", err)
	}
	return nil
}

func (t *ledgerTx) UpdateEntry(ctx context.Context, entry *models.PointHistoryEntry) error {
	res, err := t.tx.ExecContext(ctx, updateEntryQuery,
		entry.StudentID, entry.IssuerID, entry.Points, entry.Reason, entry.EventDate, entry.ID,
	)
	if err != nil {
		return fmt.Errorf("update point history entry: %w", err)
	}
	return requireRow(res, ErrEntryNotFound)
}

func (t *ledgerTx) DeleteEntry(ctx context.Context, id string) error {
	res, err := t.tx.ExecContext(ctx, deleteEntryQuery, id)
	if err != nil {
		return fmt.Errorf("delete point history entry: %w", err)
	}
	return requireRow(res, ErrEntryNotFound)
}

func (t *ledgerTx) AdjustPoints(ctx context.Context, studentID string, delta int) error {
	res, err := t.tx.ExecContext(ctx, adjustPointsQuery, delta, time.Now().UTC(), studentID, models.RoleStudent)
	if err != nil {
		return fmt.Errorf("adjust student points: %w", err)
	}
	return requireRow(res, ErrUserNotFound)
}

func requireRow(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
