// Package memory holds an in-process credential store for development and
// tests. It honours the same contract as the Mongo and Postgres stores.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/incuna/user-management/internal/core/domain"
)

type UserRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*domain.User
	byEmail map[string]int64
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[int64]*domain.User),
		byEmail: make(map[string]int64),
	}
}

func clone(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := domain.EmailKey(user.Email)
	if _, taken := r.byEmail[key]; taken {
		return nil, domain.ErrUserExists
	}

	r.nextID++
	stored := clone(user)
	stored.ID = r.nextID
	r.byID[stored.ID] = stored
	r.byEmail[key] = stored.ID
	return clone(stored), nil
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(u), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[domain.EmailKey(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *UserRepository) List(_ context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, clone(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[user.ID]
	if !ok {
		return domain.ErrNotFound
	}

	oldKey, newKey := domain.EmailKey(stored.Email), domain.EmailKey(user.Email)
	if oldKey != newKey {
		if _, taken := r.byEmail[newKey]; taken {
			return domain.ErrUserExists
		}
		delete(r.byEmail, oldKey)
		r.byEmail[newKey] = user.ID
	}

	stored.Email = user.Email
	stored.Name = user.Name
	stored.IsStaff = user.IsStaff
	stored.Avatar = user.Avatar
	return nil
}

func (r *UserRepository) SetPassword(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *UserRepository) MarkVerified(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.VerifiedEmail = true
	u.IsActive = true
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.byEmail, domain.EmailKey(u.Email))
	delete(r.byID, id)
	return nil
}

// Put stores user as-is, keeping its id and flags. It exists for seeding
// fixtures and the create-staff command in memory mode.
func (r *UserRepository) Put(user *domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := clone(user)
	if stored.ID == 0 {
		r.nextID++
		stored.ID = r.nextID
	} else if stored.ID > r.nextID {
		r.nextID = stored.ID
	}
	if prev, ok := r.byID[stored.ID]; ok {
		delete(r.byEmail, domain.EmailKey(prev.Email))
	}
	r.byID[stored.ID] = stored
	r.byEmail[domain.EmailKey(stored.Email)] = stored.ID
	return clone(stored)
}
