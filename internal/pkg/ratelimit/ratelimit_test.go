package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, rate, burst float64) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLimiter(rdb, logger, "test:ratelimit:", rate, burst), mr
}

func TestLimiter_BurstThenReject(t *testing.T) {
	l, _ := newTestLimiter(t, 1, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("request %d within burst must pass", i)
		}
	}

	ok, err := l.Allow(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("allow after burst: %v", err)
	}
	if ok {
		t.Fatal("request beyond burst must be rejected")
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t, 1, 1)
	ctx := context.Background()

	if ok, _ := l.Allow(ctx, "1.2.3.4"); !ok {
		t.Fatal("first key must pass")
	}
	if ok, _ := l.Allow(ctx, "1.2.3.4"); ok {
		t.Fatal("first key must now be exhausted")
	}
	if ok, _ := l.Allow(ctx, "5.6.7.8"); !ok {
		t.Fatal("a different key must have its own bucket")
	}
}

func TestLimiter_DisabledConfigAllowsAll(t *testing.T) {
	l, _ := newTestLimiter(t, 0, 0)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		if err != nil || !ok {
			t.Fatalf("disabled limiter must always pass, got ok=%v err=%v", ok, err)
		}
	}
}

func TestLimiter_RedisDownReturnsError(t *testing.T) {
	l, mr := newTestLimiter(t, 1, 3)
	mr.Close()

	if _, err := l.Allow(context.Background(), "1.2.3.4"); err == nil {
		t.Fatal("expected an error when redis is down")
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		in   interface{}
		want int64
	}{
		{int64(5), 5},
		{7, 7},
		{3.9, 3},
		{"12", 12},
		{"", 0},
		{"nope", 0},
		{nil, 0},
	}
	for _, tc := range cases {
		if got := toInt64(tc.in); got != tc.want {
			t.Errorf("toInt64(%v): want %d, got %d", tc.in, tc.want, got)
		}
	}
}
