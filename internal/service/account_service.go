package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/pointku-api/internal/dto"
	"github.com/noah-isme/pointku-api/internal/models"
	"github.com/noah-isme/pointku-api/internal/repository"
	"github.com/noah-isme/pointku-api/pkg/database"
	appErrors "github.com/noah-isme/pointku-api/pkg/errors"
)

const passwordHashCost = 10

type accountRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// AccountService provisions accounts. New accounts always start with zero points.
type AccountService struct {
	repo      accountRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAccountService constructs the service.
func NewAccountService(repo accountRepository, validate *validator.Validate, logger *zap.Logger) *AccountService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{repo: repo, validator: validate, logger: logger}
}

// Provision creates an account with a bcrypt password hash.
func (s *AccountService) Provision(ctx context.Context, req dto.ProvisionUserRequest) (*models.User, error) {
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid account payload")
	}
	role := models.UserRole(req.Role)
	if role != models.RoleStudent && req.RombelID != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only students belong to a rombel")
	}

	if _, err := s.repo.FindByUsername(ctx, req.Username); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already taken")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordHashCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         role,
		RombelID:     req.RombelID,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "username already taken")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}

	s.logger.Info("account provisioned", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}
