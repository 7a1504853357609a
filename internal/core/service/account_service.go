package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/incuna/user-management/internal/core/domain"
	"github.com/incuna/user-management/internal/core/ports"
	"github.com/incuna/user-management/internal/pkg/metrics"
)

const maxNameLength = 255

// AccountDeps wires AccountService. Throttle is optional.
type AccountDeps struct {
	Users              ports.UserRepository
	Hasher             ports.PasswordHasher
	ResetTokens        ports.TokenGenerator
	VerificationTokens ports.TokenGenerator
	Notifier           ports.Notifier
	Throttle           ports.ResetThrottle
	Site               Site
}

// AccountService implements ports.AccountService.
type AccountService struct {
	users        ports.UserRepository
	hasher       ports.PasswordHasher
	resetTokens  ports.TokenGenerator
	verifyTokens ports.TokenGenerator
	notifier     ports.Notifier
	throttle     ports.ResetThrottle
	site         Site
	log          zerolog.Logger
	now          func() time.Time
}

func NewAccountService(deps AccountDeps, log zerolog.Logger) *AccountService {
	return &AccountService{
		users:        deps.Users,
		hasher:       deps.Hasher,
		resetTokens:  deps.ResetTokens,
		verifyTokens: deps.VerificationTokens,
		notifier:     deps.Notifier,
		throttle:     deps.Throttle,
		site:         deps.Site,
		log:          log,
		now:          time.Now,
	}
}

// Register creates an inactive account and sends its verification mail.
func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	ve := domain.NewValidationError()
	name := strings.TrimSpace(in.Name)
	checkName(ve, name)
	email := checkEmail(ve, in.Email)
	domain.CheckPasswordPair(ve, "password", "password2", in.Password, in.Password2)

	if !ve.Has("email") {
		switch _, err := s.users.FindByEmail(ctx, email); {
		case err == nil:
			ve.Add("email", "User with this email address already exists.")
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("register: lookup email: %w", err)
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	created, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		DateJoined:   s.now().UTC().Truncate(time.Millisecond),
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.FieldError("email", "User with this email address already exists.")
		}
		return nil, fmt.Errorf("register: create user: %w", err)
	}

	s.log.Info().Int64("user_id", created.ID).Msg("user registered")

	msg := verificationEmail(s.site, created, s.verifyTokens.Issue(created))
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.log.Error().Err(err).Int64("user_id", created.ID).Msg("failed to dispatch verification email")
	}

	return created, nil
}

// RequestPasswordReset mails a reset link when email belongs to an account.
// The result is identical whether or not it does.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.FieldError("email", "This field is required.")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Debug().Msg("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("password reset request: %w", err)
	}

	claimed := false
	if s.throttle != nil {
		allowed, err := s.throttle.Allow(ctx, user.ID)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("reset throttle unavailable, sending anyway")
		case !allowed:
			s.log.Info().Int64("user_id", user.ID).Msg("password reset mail throttled")
			return nil
		default:
			claimed = true
		}
	}

	msg := passwordResetEmail(s.site, user, s.resetTokens.Issue(user))
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to dispatch password reset email")
		if claimed {
			if relErr := s.throttle.Release(ctx, user.ID); relErr != nil {
				s.log.Warn().Err(relErr).Int64("user_id", user.ID).Msg("failed to release reset throttle")
			}
		}
	}
	return nil
}

// CheckResetLink reports whether uid and token name a live password reset
// link. It fails with domain.ErrNotFound otherwise.
func (s *AccountService) CheckResetLink(ctx context.Context, uid, token string) error {
	_, err := s.userFromLink(ctx, uid, token, s.resetTokens, PurposePasswordReset)
	return err
}

// ConfirmPasswordReset sets a new password for the account named by uid
// when token is still valid for it.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, uid, token string, in ports.SetPasswordInput) error {
	user, err := s.userFromLink(ctx, uid, token, s.resetTokens, PurposePasswordReset)
	if err != nil {
		return err
	}

	ve := domain.NewValidationError()
	domain.CheckPasswordPair(ve, "new_password", "new_password2", in.NewPassword, in.NewPassword2)
	if err := ve.OrNil(); err != nil {
		return err
	}

	if err := s.setPassword(ctx, user.ID, in.NewPassword); err != nil {
		return fmt.Errorf("password reset confirm: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Msg("password reset completed")
	return nil
}

// ChangePassword replaces the password of an authenticated user after
// checking the old one.
func (s *AccountService) ChangePassword(ctx context.Context, user *domain.User, in ports.ChangePasswordInput) error {
	if user == nil {
		return domain.ErrAuthenticationRequired
	}

	ve := domain.NewValidationError()
	if in.OldPassword == "" {
		ve.Add("old_password", "This field is required.")
	} else if !s.hasher.Verify(user.PasswordHash, in.OldPassword) {
		ve.Add("old_password", "Invalid password.")
	}
	domain.CheckPasswordPair(ve, "new_password", "new_password2", in.NewPassword, in.NewPassword2)
	if err := ve.OrNil(); err != nil {
		return err
	}

	if err := s.setPassword(ctx, user.ID, in.NewPassword); err != nil {
		return fmt.Errorf("password change: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Msg("password changed")
	return nil
}

// VerifyEmail activates the account named by uid. Any caller holding a
// valid token may complete it.
func (s *AccountService) VerifyEmail(ctx context.Context, uid, token string) error {
	user, err := s.userFromLink(ctx, uid, token, s.verifyTokens, PurposeVerification)
	if err != nil {
		return err
	}
	if user.VerifiedEmail {
		return domain.ErrPermissionDenied
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("verify email: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Msg("email verified")
	return nil
}

// userFromLink resolves uid and checks token against that account. Unknown
// users and bad tokens both come back as domain.ErrNotFound.
func (s *AccountService) userFromLink(ctx context.Context, uid, token string, tokens ports.TokenGenerator, purpose string) (*domain.User, error) {
	id, err := domain.DecodeUID(uid)
	if err != nil {
		metrics.TokenValidationsTotal.WithLabelValues(purpose, "unknown_user").Inc()
		return nil, domain.ErrNotFound
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.TokenValidationsTotal.WithLabelValues(purpose, "unknown_user").Inc()
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if !tokens.Validate(token, user) {
		metrics.TokenValidationsTotal.WithLabelValues(purpose, "invalid").Inc()
		return nil, domain.ErrNotFound
	}

	metrics.TokenValidationsTotal.WithLabelValues(purpose, "valid").Inc()
	return user, nil
}

func (s *AccountService) setPassword(ctx context.Context, id int64, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.SetPassword(ctx, id, hash)
}

func checkName(ve *domain.ValidationError, name string) {
	switch {
	case name == "":
		ve.Add("name", "This field is required.")
	case len(name) > maxNameLength:
		ve.Add("name", "Ensure this field has no more than 255 characters.")
	}
}

// checkEmail validates the address and returns its normalized form.
func checkEmail(ve *domain.ValidationError, email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		ve.Add("email", "This field is required.")
		return ""
	}
	if len(email) > 254 {
		ve.Add("email", "Ensure this field has no more than 254 characters.")
		return ""
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		ve.Add("email", "Enter a valid email address.")
		return ""
	}
	return domain.NormalizeEmail(email)
}
