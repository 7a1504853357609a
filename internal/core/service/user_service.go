package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/incuna/user-management/internal/core/domain"
	"github.com/incuna/user-management/internal/core/ports"
)

// UserService implements the admin user operations.
type UserService struct {
	users   ports.UserRepository
	storage ports.BlobStorage
	log     zerolog.Logger
	now     func() time.Time
}

// NewUserService returns a UserService. storage may be nil, in which case
// avatars of deleted users are left in place.
func NewUserService(users ports.UserRepository, storage ports.BlobStorage, log zerolog.Logger) *UserService {
	return &UserService{users: users, storage: storage, log: log, now: time.Now}
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

// Create adds an account without a usable password. The owner sets one
// through the password reset flow.
func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	ve := domain.NewValidationError()
	name := strings.TrimSpace(in.Name)
	checkName(ve, name)
	email := checkEmail(ve, in.Email)
	if !ve.Has("email") {
		if err := s.ensureEmailFree(ctx, email, 0, ve); err != nil {
			return nil, err
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	created, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: domain.UnusablePassword,
		DateJoined:   s.now().UTC().Truncate(time.Millisecond),
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.FieldError("email", "User with this email address already exists.")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Int64("user_id", created.ID).Msg("user created by staff")
	return created, nil
}

// Update applies the non-nil fields of in to the user with the given id.
func (s *UserService) Update(ctx context.Context, id int64, in ports.UserUpdate) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ve := domain.NewValidationError()
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		checkName(ve, name)
		user.Name = name
	}
	if in.Email != nil {
		email := checkEmail(ve, *in.Email)
		if !ve.Has("email") {
			if err := s.ensureEmailFree(ctx, email, id, ve); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.FieldError("email", "User with this email address already exists.")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.log.Info().Int64("user_id", id).Msg("user updated by staff")
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if user.Avatar != "" && s.storage != nil {
		if err := s.storage.Delete(ctx, user.Avatar); err != nil {
			s.log.Warn().Err(err).Int64("user_id", id).Str("key", user.Avatar).Msg("failed to delete avatar of removed user")
		}
	}

	s.log.Info().Int64("user_id", id).Msg("user deleted by staff")
	return nil
}

// ensureEmailFree adds a field error when email belongs to an account other
// than selfID.
func (s *UserService) ensureEmailFree(ctx context.Context, email string, selfID int64, ve *domain.ValidationError) error {
	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("lookup email: %w", err)
	case existing.ID != selfID:
		ve.Add("email", "User with this email address already exists.")
	}
	return nil
}
