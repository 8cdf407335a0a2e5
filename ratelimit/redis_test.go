package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, NewRedis(client, "rl")
}

func TestRedisAllowWithinBudget(t *testing.T) {
	_, store := newTestRedis(t)
	cfg := Config{Window: time.Minute, Max: 2}

	d, err := store.Allow(context.Background(), "auth:10.0.0.1", cfg)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !d.Allowed || d.Remaining != 1 {
		t.Fatalf("first request: %+v", d)
	}

	d, err = store.Allow(context.Background(), "auth:10.0.0.1", cfg)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !d.Allowed || d.Remaining != 0 {
		t.Fatalf("second request: %+v", d)
	}

	d, err = store.Allow(context.Background(), "auth:10.0.0.1", cfg)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if d.Allowed {
		t.Fatal("third request over budget should be rejected")
	}
	if d.RetryAfter <= 0 {
		t.Fatalf("RetryAfter = %v, want positive", d.RetryAfter)
	}
}

func TestRedisWindowExpiry(t *testing.T) {
	mr, store := newTestRedis(t)
	cfg := Config{Window: time.Minute, Max: 1}

	if d, _ := store.Allow(context.Background(), "auth:10.0.0.1", cfg); !d.Allowed {
		t.Fatal("first request should be allowed")
	}
	if d, _ := store.Allow(context.Background(), "auth:10.0.0.1", cfg); d.Allowed {
		t.Fatal("second request should be rejected")
	}

	mr.FastForward(time.Minute)

	if d, _ := store.Allow(context.Background(), "auth:10.0.0.1", cfg); !d.Allowed {
		t.Fatal("request after window expiry should be allowed")
	}
}

func TestRedisUnavailable(t *testing.T) {
	mr, store := newTestRedis(t)
	mr.Close()

	_, err := store.Allow(context.Background(), "auth:10.0.0.1", Config{Window: time.Minute, Max: 1})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}
