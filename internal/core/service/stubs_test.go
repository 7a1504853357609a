package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/incuna/user-management/internal/core/domain"
	"github.com/incuna/user-management/internal/core/ports"
	"github.com/incuna/user-management/internal/infrastructure/db/memory"
	"golang.org/x/crypto/bcrypt"
)

var testHasher = NewBcryptHasher(bcrypt.MinCost)

type captureNotifier struct {
	mu   sync.Mutex
	sent []ports.Message
	err  error
}

func (n *captureNotifier) Notify(_ context.Context, msg ports.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *captureNotifier) messages() []ports.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ports.Message(nil), n.sent...)
}

type stubThrottle struct {
	allow    bool
	err      error
	calls    int
	released int
}

func (t *stubThrottle) Allow(context.Context, int64) (bool, error) {
	t.calls++
	return t.allow, t.err
}

func (t *stubThrottle) Release(context.Context, int64) error {
	t.released++
	return nil
}

// failingRepo wraps the memory store and fails selected calls.
type failingRepo struct {
	*memory.UserRepository
	updateErr error
	findErr   error
}

func (r *failingRepo) Update(ctx context.Context, u *domain.User) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.UserRepository.Update(ctx, u)
}

func (r *failingRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.UserRepository.FindByEmail(ctx, email)
}

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	saves   int
	saveErr error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (b *memBlobs) Save(_ context.Context, key string, r io.Reader, contentType string) error {
	if b.saveErr != nil {
		return b.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	b.types[key] = contentType
	b.saves++
	return nil
}

func (b *memBlobs) Open(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memBlobs) Exists(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok, nil
}

func (b *memBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[key]; !ok {
		return errors.New("no such key")
	}
	delete(b.objects, key)
	return nil
}

func (b *memBlobs) URL(_ context.Context, key string) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

type stubResizer struct {
	calls    int
	w, h     int
	checkErr error
	thumbErr error
}

func (r *stubResizer) Check(io.Reader) error { return r.checkErr }

func (r *stubResizer) Thumbnail(src io.Reader, width, height int) ([]byte, error) {
	r.calls++
	r.w, r.h = width, height
	if _, err := io.ReadAll(src); err != nil {
		return nil, err
	}
	if r.thumbErr != nil {
		return nil, r.thumbErr
	}
	return []byte("\x89PNG\r\n\x1a\nthumb"), nil
}
