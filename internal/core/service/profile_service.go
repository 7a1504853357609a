package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/incuna/user-management/internal/core/domain"
	"github.com/incuna/user-management/internal/core/ports"
)

type ProfileService struct {
	users ports.UserRepository
	log   zerolog.Logger
}

func NewProfileService(users ports.UserRepository, log zerolog.Logger) *ProfileService {
	return &ProfileService{users: users, log: log}
}

// UpdateProfile applies the non-nil fields of in to user.
func (s *ProfileService) UpdateProfile(ctx context.Context, user *domain.User, in ports.ProfileUpdate) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrAuthenticationRequired
	}

	updated := *user
	if in.Name != nil {
		ve := domain.NewValidationError()
		name := strings.TrimSpace(*in.Name)
		checkName(ve, name)
		if err := ve.OrNil(); err != nil {
			return nil, err
		}
		updated.Name = name
	}

	if err := s.users.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &updated, nil
}
