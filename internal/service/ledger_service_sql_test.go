package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/pointku-api/internal/dto"
	"github.com/noah-isme/pointku-api/internal/repository"
	appErrors "github.com/noah-isme/pointku-api/pkg/errors"
)

func newSQLLedgerService(t *testing.T) (*PointLedgerService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	repo := repository.NewPointHistoryRepository(sqlx.NewDb(db, "sqlmock"))
	svc := NewPointLedgerService(repo, validator.New(), zap.NewNop(), NewMetricsService(), nil)
	return svc, mock, func() { db.Close() }
}

func expectReassignmentUpToUpdate(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM point_history WHERE id = $1 FOR UPDATE")).
		WithArgs("ph-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "issuer_id", "points", "reason", "event_date", "created_at"}).
			AddRow("ph-1", "stu-z", "gur-1", 3, "Piket", time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM users WHERE id = $1")).
		WithArgs("stu-a").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("STUDENT"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE point_history SET student_id = $1, issuer_id = $2, points = $3, reason = $4, event_date = $5 WHERE id = $6")).
		WithArgs("stu-a", "gur-1", 4, "Piket", "2024-01-11", "ph-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestAmendReassignmentAdjustsTotalsInStudentIDOrder(t *testing.T) {
	svc, mock, cleanup := newSQLLedgerService(t)
	defer cleanup()

	expectReassignmentUpToUpdate(mock)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET points = points + $1")).
		WithArgs(4, sqlmock.AnyArg(), "stu-a", "STUDENT").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET points = points + $1")).
		WithArgs(-3, sqlmock.AnyArg(), "stu-z", "STUDENT").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entry, err := svc.Amend(context.Background(), admin, "ph-1", dto.AmendPointsRequest{StudentID: "stu-a", Points: 4, Reason: "Piket"})
	require.NoError(t, err)
	assert.Equal(t, "stu-a", entry.StudentID)
	assert.Equal(t, 4, entry.Points)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAmendReassignmentRollsBackWhenFormerStudentMissing(t *testing.T) {
	svc, mock, cleanup := newSQLLedgerService(t)
	defer cleanup()

	expectReassignmentUpToUpdate(mock)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET points = points + $1")).
		WithArgs(4, sqlmock.AnyArg(), "stu-a", "STUDENT").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET points = points + $1")).
		WithArgs(-3, sqlmock.AnyArg(), "stu-z", "STUDENT").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.Amend(context.Background(), admin, "ph-1", dto.AmendPointsRequest{StudentID: "stu-a", Points: 4, Reason: "Piket"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
