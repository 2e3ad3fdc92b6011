package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	_, rdb := newMiniRedis(t)
	limiter := NewRedisLimiter(rdb, nil, "test", 3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, _, err := limiter.Allow(context.Background(), "10.0.0.1")
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("hit %d should be allowed", i)
		}
	}

	ok, retryAfter, err := limiter.Allow(context.Background(), "10.0.0.1")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if ok {
		t.Fatalf("fourth hit should be limited")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Fatalf("unexpected retry after %v", retryAfter)
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	_, rdb := newMiniRedis(t)
	limiter := NewRedisLimiter(rdb, nil, "test", 1, time.Minute)

	if ok, _, _ := limiter.Allow(context.Background(), "a"); !ok {
		t.Fatalf("first hit for a should pass")
	}
	if ok, _, _ := limiter.Allow(context.Background(), "b"); !ok {
		t.Fatalf("first hit for b should pass")
	}
	if ok, _, _ := limiter.Allow(context.Background(), "a"); ok {
		t.Fatalf("second hit for a should be limited")
	}
}

func TestLimiter_WindowResets(t *testing.T) {
	s, rdb := newMiniRedis(t)
	limiter := NewRedisLimiter(rdb, nil, "test", 1, time.Minute)

	if ok, _, _ := limiter.Allow(context.Background(), "ip"); !ok {
		t.Fatalf("first hit should pass")
	}
	if ok, _, _ := limiter.Allow(context.Background(), "ip"); ok {
		t.Fatalf("second hit should be limited")
	}

	s.FastForward(61 * time.Second)

	if ok, _, _ := limiter.Allow(context.Background(), "ip"); !ok {
		t.Fatalf("hit after window should pass")
	}
}

func TestLimiter_ConcurrentHits(t *testing.T) {
	_, rdb := newMiniRedis(t)
	limiter := NewRedisLimiter(rdb, nil, "test", 5, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := limiter.Allow(context.Background(), "shared")
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if ok {
				allowed++
			}
		}()
	}
	wg.Wait()

	if allowed != 5 {
		t.Fatalf("expected 5 allowed hits, got %d", allowed)
	}
}

func TestLimiter_DisabledWithoutRedis(t *testing.T) {
	limiter := NewRedisLimiter(nil, nil, "", 1, time.Minute)
	ok, _, err := limiter.Allow(context.Background(), "x")
	if err != nil || !ok {
		t.Fatalf("limiter without redis should allow, ok=%v err=%v", ok, err)
	}
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(s.Close)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return s, rdb
}
