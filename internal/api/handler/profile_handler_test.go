package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/incuna/user-management/internal/core/domain"
	"github.com/incuna/user-management/internal/core/ports"
)

func TestProfileHandler_Get(t *testing.T) {
	joined := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	me := &domain.User{ID: 1, Name: "Ann", Email: "ann@example.com", DateJoined: joined, PasswordHash: "hash"}
	h := NewProfileHandler(&stubProfileService{})

	c, rec := newContext(http.MethodGet, "/profile", "", me)
	if err := h.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp map[string]any
	decode(t, rec, &resp)
	if resp["name"] != "Ann" || resp["email"] != "ann@example.com" || resp["date_joined"] != "2024-03-01T12:00:00Z" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if len(resp) != 3 {
		t.Fatalf("unexpected fields: %+v", resp)
	}
}

func TestProfileHandler_Anonymous(t *testing.T) {
	h := NewProfileHandler(&stubProfileService{})

	c, _ := newContext(http.MethodGet, "/profile", "", nil)
	if err := h.Get(c); !errors.Is(err, domain.ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
	}
	c, _ = newContext(http.MethodPatch, "/profile", `{"name":"x"}`, nil)
	if err := h.Patch(c); !errors.Is(err, domain.ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
	}
}

func TestProfileHandler_PutRequiresName(t *testing.T) {
	h := NewProfileHandler(&stubProfileService{
		updateFn: func(context.Context, *domain.User, ports.ProfileUpdate) (*domain.User, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	})

	c, _ := newContext(http.MethodPut, "/profile", `{"email":"new@example.com"}`, &domain.User{ID: 1})
	fields := fieldsOf(t, h.Put(c))
	if len(fields["name"]) != 1 {
		t.Fatalf("expected a name error, got %+v", fields)
	}
}

func TestProfileHandler_PatchForwardsName(t *testing.T) {
	me := &domain.User{ID: 1, Name: "Ann", Email: "ann@example.com"}
	h := NewProfileHandler(&stubProfileService{
		updateFn: func(_ context.Context, user *domain.User, in ports.ProfileUpdate) (*domain.User, error) {
			if user != me || in.Name == nil || *in.Name != "Annie" {
				t.Fatalf("unexpected update: %+v", in)
			}
			out := *user
			out.Name = *in.Name
			return &out, nil
		},
	})

	c, rec := newContext(http.MethodPatch, "/profile", `{"name":"Annie","email":"ignored@example.com"}`, me)
	if err := h.Patch(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp profileResponse
	decode(t, rec, &resp)
	if resp.Name != "Annie" || resp.Email != "ann@example.com" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestProfileHandler_PatchEmptyBody(t *testing.T) {
	me := &domain.User{ID: 1, Name: "Ann"}
	h := NewProfileHandler(&stubProfileService{
		updateFn: func(_ context.Context, user *domain.User, in ports.ProfileUpdate) (*domain.User, error) {
			if in.Name != nil {
				t.Fatal("name should be left unchanged")
			}
			return user, nil
		},
	})

	c, rec := newContext(http.MethodPatch, "/profile", `{}`, me)
	if err := h.Patch(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
