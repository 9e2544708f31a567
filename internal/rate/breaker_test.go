package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/docuplane/credentiald/internal/domain"
	"github.com/docuplane/credentiald/internal/store/memstore"
)

func TestBreaker_OpensPastThreshold(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := NewCircuitBreaker(memstore.NewRateLimitStore())

	for i := 0; i < DefaultThreshold; i++ {
		if err := b.Test(ctx, "user@example.com"); err != nil {
			t.Fatalf("attempt %d: unexpected err %v", i+1, err)
		}
	}
	// intento threshold+1 dentro de la ventana
	if err := b.Test(ctx, "user@example.com"); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestBreaker_CountersArePerLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := NewCircuitBreaker(memstore.NewRateLimitStore())

	for i := 0; i < DefaultThreshold+1; i++ {
		_ = b.Test(ctx, "a@example.com")
	}
	if err := b.Test(ctx, "b@example.com"); err != nil {
		t.Fatalf("other login must not be throttled: %v", err)
	}
}

func TestBreaker_ResetClosesTheCircuit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := NewCircuitBreaker(memstore.NewRateLimitStore())

	for i := 0; i < DefaultThreshold+1; i++ {
		_ = b.Test(ctx, "user@example.com")
	}
	if err := b.Test(ctx, "user@example.com"); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if err := b.Reset(ctx, "user@example.com"); err != nil {
		t.Fatalf("Reset err: %v", err)
	}
	if err := b.Test(ctx, "user@example.com"); err != nil {
		t.Fatalf("after reset expected closed circuit, got %v", err)
	}
}

func TestBreaker_WindowExpiresCounter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memstore.NewRateLimitStore()
	b := NewCircuitBreaker(store)

	now := time.Now()
	store.SetNowFunc(func() time.Time { return now })

	for i := 0; i < DefaultThreshold+1; i++ {
		_ = b.Test(ctx, "user@example.com")
	}
	if err := b.Test(ctx, "user@example.com"); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected open circuit, got %v", err)
	}

	// pasada la ventana, el contador arranca de cero
	store.SetNowFunc(func() time.Time { return now.Add(DefaultWindow + time.Second) })
	if err := b.Test(ctx, "user@example.com"); err != nil {
		t.Fatalf("expired window must reset the counter, got %v", err)
	}
}
