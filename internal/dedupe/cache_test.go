package dedupe

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache_MissBeforeMark(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	hit, err := c.Exists(context.Background(), "u1-m1-1-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit {
		t.Fatal("unmarked key should not exist")
	}
}

func TestMemoryCache_HitAfterMark(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	if err := c.Mark(ctx, "u1-m1-1-2"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	hit, err := c.Exists(ctx, "u1-m1-1-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hit {
		t.Fatal("marked key should exist")
	}
}

func TestMemoryCache_ExpiresAfterTTL(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	if err := c.Mark(ctx, "u1-m1"); err != nil {
		t.Fatalf("mark: %v", err)
	}

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	hit, err := c.Exists(ctx, "u1-m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit {
		t.Fatal("key should have expired")
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	_ = c.Mark(ctx, "u1-m1")
	if err := c.Clear(ctx, "u1-m1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	hit, _ := c.Exists(ctx, "u1-m1")
	if hit {
		t.Fatal("cleared key should not exist")
	}
}

func TestNewCache_FallsBackToMemory(t *testing.T) {
	c, err := NewCache("", time.Minute, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.(*MemoryCache); !ok {
		t.Fatalf("expected MemoryCache when no DSN provided, got %T", c)
	}
}

func TestNewCache_RejectsMemoryInProd(t *testing.T) {
	c, err := NewCache("", time.Minute, true)
	if err == nil {
		t.Fatalf("expected error in production with no DSN, got cache %T", c)
	}
}
