package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/incuna/user-management/internal/core/domain"
	"github.com/incuna/user-management/internal/core/ports"
	"github.com/incuna/user-management/internal/infrastructure/db/memory"
)

func TestUserService_CreateHasUnusablePassword(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := NewUserService(repo, nil, zerolog.Nop())

	u, err := svc.Create(context.Background(), ports.CreateUserInput{Name: "Lee", Email: "lee@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.HasUsablePassword() || u.IsActive {
		t.Fatalf("staff-created user should be inactive with no usable password: %+v", u)
	}

	_, err = svc.Create(context.Background(), ports.CreateUserInput{Name: "Lee", Email: "LEE@example.com"})
	if len(fieldErrors(t, err)["email"]) == 0 {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
}

func TestUserService_Update(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := NewUserService(repo, nil, zerolog.Nop())
	a := repo.Put(&domain.User{Email: "a@example.com", Name: "A"})
	repo.Put(&domain.User{Email: "b@example.com", Name: "B"})

	// Same address in another case belongs to the user itself.
	updated, err := svc.Update(context.Background(), a.ID, ports.UserUpdate{Email: strPtr("A@example.com"), Name: strPtr("Ann")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Ann" || updated.Email != "A@example.com" {
		t.Fatalf("unexpected user: %+v", updated)
	}

	_, err = svc.Update(context.Background(), a.ID, ports.UserUpdate{Email: strPtr("B@EXAMPLE.com")})
	if len(fieldErrors(t, err)["email"]) == 0 {
		t.Fatalf("expected duplicate email error, got %v", err)
	}

	if _, err := svc.Update(context.Background(), 404, ports.UserUpdate{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserService_DeleteRemovesAvatar(t *testing.T) {
	repo := memory.NewUserRepository()
	blobs := newMemBlobs()
	_ = blobs.Save(context.Background(), "avatars/x.png", bytesReader("png"), "image/png")
	svc := NewUserService(repo, blobs, zerolog.Nop())
	u := repo.Put(&domain.User{Email: "a@example.com", Avatar: "avatars/x.png"})

	if err := svc.Delete(context.Background(), u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), u.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if ok, _ := blobs.Exists(context.Background(), "avatars/x.png"); ok {
		t.Fatal("avatar blob should be removed")
	}
	if err := svc.Delete(context.Background(), u.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserService_ListOrdered(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := NewUserService(repo, nil, zerolog.Nop())
	for _, e := range []string{"c@example.com", "a@example.com", "b@example.com"} {
		if _, err := svc.Create(context.Background(), ports.CreateUserInput{Name: "x", Email: e}); err != nil {
			t.Fatalf("create %s: %v", e, err)
		}
	}

	users, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 3 || users[0].Email != "c@example.com" || users[2].Email != "b@example.com" {
		t.Fatalf("expected users in id order, got %+v", users)
	}
}
