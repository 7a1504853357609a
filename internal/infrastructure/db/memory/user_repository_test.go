package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/incuna/user-management/internal/core/domain"
)

func TestUserRepository_CreateAssignsSequentialIDs(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	a, err := repo.Create(ctx, &domain.User{Email: "a@example.com"})
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := repo.Create(ctx, &domain.User{Email: "b@example.com"})
	if err != nil {
		t.Fatalf("create b: %v", err)
	}
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", a.ID, b.ID)
	}
}

func TestUserRepository_EmailUniqueIgnoringCase(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	if _, err := repo.Create(ctx, &domain.User{Email: "Bob@Example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, &domain.User{Email: "BOB@EXAMPLE.COM"}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	u, err := repo.FindByEmail(ctx, "bob@example.COM")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if u.Email != "Bob@Example.com" {
		t.Fatalf("stored email should keep its case, got %q", u.Email)
	}
}

func TestUserRepository_ConcurrentCreateSameEmail(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Create(ctx, &domain.User{Email: "race@example.com"}); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Fatalf("expected exactly one account, got %d", created)
	}
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	u, _ := repo.Create(ctx, &domain.User{Email: "a@example.com", Name: "A"})

	u.Name = "mutated"
	stored, _ := repo.FindByID(ctx, u.ID)
	if stored.Name != "A" {
		t.Fatalf("caller mutation leaked into the store")
	}
}

func TestUserRepository_UpdateAndFlags(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	a, _ := repo.Create(ctx, &domain.User{Email: "a@example.com"})
	_, _ = repo.Create(ctx, &domain.User{Email: "b@example.com"})

	a.Email = "B@example.com"
	if err := repo.Update(ctx, a); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	a.Email = "c@example.com"
	a.Name = "Carol"
	if err := repo.Update(ctx, a); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := repo.FindByEmail(ctx, "a@example.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("old email should be released, got %v", err)
	}

	if err := repo.SetPassword(ctx, a.ID, "hash"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := repo.MarkVerified(ctx, a.ID); err != nil {
		t.Fatalf("mark verified: %v", err)
	}
	got, _ := repo.FindByID(ctx, a.ID)
	if got.PasswordHash != "hash" || !got.VerifiedEmail || !got.IsActive || got.Name != "Carol" {
		t.Fatalf("unexpected stored user: %+v", got)
	}
}

func TestUserRepository_Delete(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	a, _ := repo.Create(ctx, &domain.User{Email: "a@example.com"})

	if err := repo.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, a.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := repo.Create(ctx, &domain.User{Email: "a@example.com"}); err != nil {
		t.Fatalf("email should be reusable after delete: %v", err)
	}

	for _, err := range []error{
		repo.SetPassword(ctx, 99, "x"),
		repo.MarkVerified(ctx, 99),
		repo.Update(ctx, &domain.User{ID: 99}),
	} {
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
		}
	}
}
