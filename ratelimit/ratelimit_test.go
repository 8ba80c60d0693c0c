package ratelimit

import (
	"context"
	"testing"
)

func TestTokenBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("burst is honored then exhausted", func(t *testing.T) {
		bucket := NewTokenBucket(1, 3)
		for i := 0; i < 3; i++ {
			if !bucket.Allow(ctx) {
				t.Fatalf("Allow %d: expected true within burst", i)
			}
		}
		if bucket.Allow(ctx) {
			t.Error("expected Allow to fail once the burst is spent")
		}
	})

	t.Run("non-positive rate is unlimited", func(t *testing.T) {
		bucket := NewTokenBucket(0, 1)
		for i := 0; i < 100; i++ {
			if !bucket.Allow(ctx) {
				t.Fatalf("Allow %d: expected unlimited bucket to allow", i)
			}
		}
	})

	t.Run("limit and burst can be changed", func(t *testing.T) {
		bucket := NewTokenBucket(100, 10)
		bucket.SetLimit(200, 20)
		if bucket.Limit() != 200 {
			t.Errorf("expected limit 200, got %f", bucket.Limit())
		}
		if bucket.Burst() != 20 {
			t.Errorf("expected burst 20, got %d", bucket.Burst())
		}
	})
}

func TestKeyed(t *testing.T) {
	ctx := context.Background()

	t.Run("keys are throttled independently", func(t *testing.T) {
		k := NewKeyed(0.001, 1)
		if !k.Allow(ctx, "GameLoaded") {
			t.Fatal("expected first GameLoaded to pass")
		}
		if k.Allow(ctx, "GameLoaded") {
			t.Error("expected second GameLoaded to be throttled")
		}
		if !k.Allow(ctx, "WindowResized") {
			t.Error("expected WindowResized to have its own bucket")
		}
		if k.Len() != 2 {
			t.Errorf("expected 2 buckets, got %d", k.Len())
		}
	})

	t.Run("same key returns same bucket", func(t *testing.T) {
		k := NewKeyed(10, 2)
		if k.Bucket("a") != k.Bucket("a") {
			t.Error("expected bucket to be reused")
		}
	})

	t.Run("burst defaults to one", func(t *testing.T) {
		k := NewKeyed(10, 0)
		if got := k.Bucket("a").Burst(); got != 1 {
			t.Errorf("expected burst 1, got %d", got)
		}
	})

	t.Run("SetLimit retunes existing and new buckets", func(t *testing.T) {
		k := NewKeyed(0.001, 1)
		k.Allow(ctx, "GameLoaded")
		if k.Allow(ctx, "GameLoaded") {
			t.Fatal("expected GameLoaded to be throttled")
		}

		k.SetLimit(0, 0)
		for i := 0; i < 10; i++ {
			if !k.Allow(ctx, "GameLoaded") {
				t.Fatalf("Allow %d: expected unlimited after SetLimit(0)", i)
			}
		}
		if rps, burst := k.Limit(); rps != 0 || burst != 1 {
			t.Errorf("limit = %v, %d", rps, burst)
		}

		k.SetLimit(5, 3)
		if b := k.Bucket("WindowResized"); b.Limit() != 5 || b.Burst() != 3 {
			t.Errorf("new bucket = %v, %d", b.Limit(), b.Burst())
		}
		if b := k.Bucket("GameLoaded"); b.Limit() != 5 || b.Burst() != 3 {
			t.Errorf("existing bucket = %v, %d", b.Limit(), b.Burst())
		}
	})

	t.Run("reset forgets buckets", func(t *testing.T) {
		k := NewKeyed(0.001, 1)
		k.Allow(ctx, "a")
		k.Reset()
		if k.Len() != 0 {
			t.Fatalf("expected no buckets, got %d", k.Len())
		}
		if !k.Allow(ctx, "a") {
			t.Error("expected a fresh bucket after reset")
		}
	})
}

func BenchmarkKeyedAllow(b *testing.B) {
	k := NewKeyed(1000000, 1000)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k.Allow(ctx, "FrameUpdated")
	}
}
