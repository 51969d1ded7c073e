package service

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/pointku-api/internal/dto"
	"github.com/noah-isme/pointku-api/internal/models"
	"github.com/noah-isme/pointku-api/internal/repository"
	appErrors "github.com/noah-isme/pointku-api/pkg/errors"
)

type mockAccountRepo struct {
	existing  *models.User
	createErr error
	created   []*models.User
}

func (m *mockAccountRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.existing != nil && m.existing.Username == username {
		return m.existing, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAccountRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = "new-id"
	user.Points = 0
	m.created = append(m.created, user)
	return nil
}

func TestProvisionHashesPassword(t *testing.T) {
	repo := &mockAccountRepo{}
	svc := NewAccountService(repo, nil, zap.NewNop())
	rombel := "rombel-1"

	user, err := svc.Provision(context.Background(), dto.ProvisionUserRequest{
		Name: "Ani", Username: " Ani ", Password: "secret1", Role: "STUDENT", RombelID: &rombel,
	})
	require.NoError(t, err)
	assert.Equal(t, "ani", user.Username)
	assert.Zero(t, user.Points)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
	cost, err := bcrypt.Cost([]byte(user.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, 10, cost)
}

func TestProvisionRejections(t *testing.T) {
	rombel := "rombel-1"
	tests := []struct {
		name string
		repo *mockAccountRepo
		req  dto.ProvisionUserRequest
		want *appErrors.Error
	}{
		{name: "unknown role", repo: &mockAccountRepo{}, req: dto.ProvisionUserRequest{Name: "X", Username: "xyz", Password: "secret1", Role: "JANITOR"}, want: appErrors.ErrValidation},
		{name: "teacher with rombel", repo: &mockAccountRepo{}, req: dto.ProvisionUserRequest{Name: "X", Username: "xyz", Password: "secret1", Role: "TEACHER", RombelID: &rombel}, want: appErrors.ErrValidation},
		{name: "taken username", repo: &mockAccountRepo{existing: &models.User{Username: "xyz"}}, req: dto.ProvisionUserRequest{Name: "X", Username: "xyz", Password: "secret1", Role: "ADMIN"}, want: appErrors.ErrConflict},
		{name: "unique race", repo: &mockAccountRepo{createErr: &pq.Error{Code: "23505"}}, req: dto.ProvisionUserRequest{Name: "X", Username: "xyz", Password: "secret1", Role: "ADMIN"}, want: appErrors.ErrConflict},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewAccountService(tc.repo, nil, zap.NewNop())
			_, err := svc.Provision(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, tc.repo.created)
		})
	}
}
