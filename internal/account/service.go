// Package account handles account registration.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ys4e/pancake/internal/credential"
)

var (
	ErrDuplicate        = errors.New("account already exists")
	ErrInvalidForm      = errors.New("invalid account data")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// RegisterForm is the registration form as posted by the game's web view.
type RegisterForm struct {
	Username   string `validate:"required,min=2,max=64"`
	Email      string `validate:"required,email,max=128"`
	PasswordV1 string `validate:"required,min=8,max=128"`
	PasswordV2 string `validate:"required"`
}

// Repo is the persistence registration needs. Implemented by
// *repo.AccountRepo.
type Repo interface {
	ExistsByNameOrEmail(ctx context.Context, name, email string) (bool, error)
	Create(ctx context.Context, name, email, passwordHash string) (int64, error)
}

type Service struct {
	repo     Repo
	hasher   credential.PasswordHasher
	validate *validator.Validate
	logger   *zap.SugaredLogger
}

func NewService(r Repo, hasher credential.PasswordHasher, logger *zap.SugaredLogger) *Service {
	if hasher == nil {
		hasher = credential.BcryptHasher{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{repo: r, hasher: hasher, validate: validator.New(), logger: logger}
}

// Register creates an Active account and returns its uid. The form is
// checked for duplicates before it is validated.
func (s *Service) Register(ctx context.Context, form RegisterForm) (int64, error) {
	taken, err := s.repo.ExistsByNameOrEmail(ctx, form.Username, form.Email)
	if err != nil {
		return 0, fmt.Errorf("duplicate check: %w", err)
	}
	if taken {
		return 0, ErrDuplicate
	}
	if err := s.validate.Struct(form); err != nil {
		s.logger.Debugw("registration form rejected", "err", err)
		return 0, fmt.Errorf("%w: %w", ErrInvalidForm, err)
	}
	password := strings.TrimSpace(form.PasswordV1)
	if password != form.PasswordV2 {
		return 0, ErrPasswordMismatch
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	uid, err := s.repo.Create(ctx, form.Username, form.Email, hash)
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	s.logger.Infow("account registered", "uid", uid)
	return uid, nil
}
