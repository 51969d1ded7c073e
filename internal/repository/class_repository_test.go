package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertKelasAndRombel(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kelas (id, name) VALUES ($1, $2) ON CONFLICT (id)")).
		WithArgs("kelas-x", "X").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rombel (id, kelas_id, name)")).
		WithArgs("rombel-x1", "kelas-x", "X IPA 1").
		WillReturnError(errors.New("fk"))

	require.NoError(t, repo.UpsertKelas(context.Background(), "kelas-x", "X"))
	assert.Error(t, repo.UpsertRombel(context.Background(), "rombel-x1", "kelas-x", "X IPA 1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
