package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/incuna/user-management/internal/api/middleware"
	"github.com/incuna/user-management/internal/core/domain"
	"github.com/incuna/user-management/internal/core/ports"
)

type stubAccountService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	resetFn    func(ctx context.Context, email string) error
	checkFn    func(ctx context.Context, uid, token string) error
	confirmFn  func(ctx context.Context, uid, token string, in ports.SetPasswordInput) error
	changeFn   func(ctx context.Context, user *domain.User, in ports.ChangePasswordInput) error
	verifyFn   func(ctx context.Context, uid, token string) error
}

func (s *stubAccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAccountService) RequestPasswordReset(ctx context.Context, email string) error {
	return s.resetFn(ctx, email)
}

func (s *stubAccountService) CheckResetLink(ctx context.Context, uid, token string) error {
	if s.checkFn == nil {
		return nil
	}
	return s.checkFn(ctx, uid, token)
}

func (s *stubAccountService) ConfirmPasswordReset(ctx context.Context, uid, token string, in ports.SetPasswordInput) error {
	return s.confirmFn(ctx, uid, token, in)
}

func (s *stubAccountService) ChangePassword(ctx context.Context, user *domain.User, in ports.ChangePasswordInput) error {
	return s.changeFn(ctx, user, in)
}

func (s *stubAccountService) VerifyEmail(ctx context.Context, uid, token string) error {
	return s.verifyFn(ctx, uid, token)
}

type stubAuthService struct {
	loginFn func(ctx context.Context, email, password string) (string, *domain.User, error)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrInvalidCredentials
}

type stubProfileService struct {
	updateFn func(ctx context.Context, user *domain.User, in ports.ProfileUpdate) (*domain.User, error)
}

func (s *stubProfileService) UpdateProfile(ctx context.Context, user *domain.User, in ports.ProfileUpdate) (*domain.User, error) {
	return s.updateFn(ctx, user, in)
}

type stubAvatarService struct {
	url       string
	uploadFn  func(ctx context.Context, user *domain.User, in ports.AvatarUpload) (string, error)
	thumbnail func(width, height int) (string, error)
}

func (s *stubAvatarService) AvatarURL(context.Context, *domain.User) (string, error) {
	return s.url, nil
}

func (s *stubAvatarService) Upload(ctx context.Context, user *domain.User, in ports.AvatarUpload) (string, error) {
	return s.uploadFn(ctx, user, in)
}

func (s *stubAvatarService) ThumbnailURL(_ context.Context, _ *domain.User, width, height int) (string, error) {
	return s.thumbnail(width, height)
}

type stubUserService struct {
	users    []*domain.User
	createFn func(ctx context.Context, in ports.CreateUserInput) (*domain.User, error)
	updateFn func(ctx context.Context, id int64, in ports.UserUpdate) (*domain.User, error)
	deleted  []int64
}

func (s *stubUserService) List(context.Context) ([]*domain.User, error) { return s.users, nil }

func (s *stubUserService) Get(_ context.Context, id int64) (*domain.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubUserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, in)
}

func (s *stubUserService) Update(ctx context.Context, id int64, in ports.UserUpdate) (*domain.User, error) {
	return s.updateFn(ctx, id, in)
}

func (s *stubUserService) Delete(_ context.Context, id int64) error {
	if _, err := s.Get(context.Background(), id); err != nil {
		return err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

// newContext builds an echo context for target, authenticated as user when
// user is non-nil.
func newContext(method, target, body string, user *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(middleware.UserContextKey, user)
	}
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
}

func fieldsOf(t *testing.T, err error) map[string][]string {
	t.Helper()
	ve, ok := err.(*domain.ValidationError)
	if !ok {
		t.Fatalf("expected *domain.ValidationError, got %T (%v)", err, err)
	}
	return ve.Fields
}
