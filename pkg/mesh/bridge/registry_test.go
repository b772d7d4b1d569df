package bridge

import (
	"context"
	"testing"
)

func TestRegistryGenerationsMonotonic(t *testing.T) {
	r := NewRegistry()

	prev := uint64(0)
	for i := 0; i < 100; i++ {
		gen := r.Next()
		if gen <= prev {
			t.Fatalf("Generation %d not greater than %d", gen, prev)
		}
		prev = gen
	}
}

func TestRegistryReleaseIdempotent(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	calls := 0
	gen := r.Next()
	r.Register(gen, func(context.Context) { calls++ })

	if r.Active() != 1 {
		t.Fatalf("Expected 1 active registration, got %d", r.Active())
	}

	r.Release(ctx, gen)
	r.Release(ctx, gen)

	if calls != 1 {
		t.Errorf("Expected the release operation to run exactly once, ran %d times", calls)
	}
	if r.Active() != 0 {
		t.Errorf("Expected no active registrations, got %d", r.Active())
	}
}

func TestRegistryReleaseUnknown(t *testing.T) {
	r := NewRegistry()
	// Unknown generations are a no-op, not an error.
	r.Release(context.Background(), 42)
}

func TestRegistryReleaseAll(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	calls := 0
	for i := 0; i < 3; i++ {
		gen := r.Next()
		r.Register(gen, func(context.Context) { calls++ })
	}

	r.ReleaseAll(ctx)

	if calls != 3 {
		t.Errorf("Expected 3 release operations, ran %d", calls)
	}
	if r.Active() != 0 {
		t.Errorf("Expected no active registrations, got %d", r.Active())
	}
}
