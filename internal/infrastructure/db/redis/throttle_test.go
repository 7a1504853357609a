package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestResetThrottle_AllowsOncePerWindow(t *testing.T) {
	mr, client := newTestClient(t)
	throttle := NewResetThrottle(client, time.Minute)
	ctx := context.Background()

	ok, err := throttle.Allow(ctx, 42)
	if err != nil || !ok {
		t.Fatalf("first call: ok=%v err=%v", ok, err)
	}
	ok, err = throttle.Allow(ctx, 42)
	if err != nil || ok {
		t.Fatalf("second call inside window: ok=%v err=%v", ok, err)
	}

	if other, _ := throttle.Allow(ctx, 43); !other {
		t.Fatal("other accounts are not affected")
	}

	if ttl := mr.TTL("reset:42"); ttl != time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	mr.FastForward(time.Minute + time.Second)
	if ok, _ := throttle.Allow(ctx, 42); !ok {
		t.Fatal("window should have expired")
	}
}

func TestResetThrottle_ReleaseReopensWindow(t *testing.T) {
	mr, client := newTestClient(t)
	throttle := NewResetThrottle(client, time.Minute)
	ctx := context.Background()

	if ok, err := throttle.Allow(ctx, 7); err != nil || !ok {
		t.Fatalf("first call: ok=%v err=%v", ok, err)
	}
	if err := throttle.Release(ctx, 7); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists("reset:7") {
		t.Fatal("key should be gone after release")
	}
	if ok, err := throttle.Allow(ctx, 7); err != nil || !ok {
		t.Fatalf("allow after release: ok=%v err=%v", ok, err)
	}

	if err := throttle.Release(ctx, 8); err != nil {
		t.Fatalf("releasing an unclaimed window: %v", err)
	}
}

func TestResetThrottle_Error(t *testing.T) {
	mr, client := newTestClient(t)
	throttle := NewResetThrottle(client, 0)
	mr.Close()

	if _, err := throttle.Allow(context.Background(), 1); err == nil {
		t.Fatal("expected error when redis is unavailable")
	}
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	_ = client.Close()

	addr := mr.Addr()
	mr.Close()
	if _, err := Connect(context.Background(), Config{Addr: addr, Timeout: 200 * time.Millisecond}); err == nil {
		t.Fatal("expected ping failure")
	}
}

func TestConnect_WithPassword(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("s3cret")

	if _, err := Connect(context.Background(), Config{Addr: mr.Addr(), Timeout: 200 * time.Millisecond}); err == nil {
		t.Fatal("expected auth failure without password")
	}

	client, err := Connect(context.Background(), Config{Addr: mr.Addr(), Password: "s3cret"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := Ping(context.Background(), client); err != nil {
		t.Fatalf("ping: %v", err)
	}
	_ = client.Close()
}
