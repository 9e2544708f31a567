package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/docuplane/credentiald/internal/domain"
	"github.com/docuplane/credentiald/internal/store/memstore"
)

func newSession(id, userID string) *domain.Session {
	return &domain.Session{
		SessionID:        id,
		UserID:           userID,
		IdentityProvider: domain.ProviderPassword,
		CreatedOn:        time.Now(),
	}
}

func TestMultiStore_RequiresBackend(t *testing.T) {
	t.Parallel()
	if _, err := NewMultiStore(); err == nil {
		t.Fatal("expected error with zero backends")
	}
}

func TestMultiStore_SaveFansOutToAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a, b := memstore.NewSessionBackend(), memstore.NewSessionBackend()
	m, err := NewMultiStore(a, b)
	if err != nil {
		t.Fatalf("NewMultiStore err: %v", err)
	}

	if _, err := m.Save(ctx, newSession("ses-1", "usr-1")); err != nil {
		t.Fatalf("Save err: %v", err)
	}
	for i, backend := range []*memstore.SessionBackend{a, b} {
		got, _ := backend.GetByUser(ctx, "usr-1")
		if len(got) != 1 {
			t.Fatalf("backend %d: got %d sessions want 1", i, len(got))
		}
	}
}

func TestMultiStore_PartialFailureFailsTheWrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a, b := memstore.NewSessionBackend(), memstore.NewSessionBackend()
	b.FailSaves(errors.New("backend down"))

	m, err := NewMultiStore(a, b)
	if err != nil {
		t.Fatalf("NewMultiStore err: %v", err)
	}
	if _, err := m.Save(ctx, newSession("ses-1", "usr-1")); err == nil {
		t.Fatal("expected Save to fail when one backend fails")
	}
}

func TestMultiStore_ReadsOnlyCanonical(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	canonical, durable := memstore.NewSessionBackend(), memstore.NewSessionBackend()

	// sesión presente solo en el durable (simula eviction del canónico)
	if err := durable.Save(ctx, newSession("ses-old", "usr-1")); err != nil {
		t.Fatalf("seed err: %v", err)
	}

	m, err := NewMultiStore(canonical, durable)
	if err != nil {
		t.Fatalf("NewMultiStore err: %v", err)
	}
	got, err := m.GetByUser(ctx, "usr-1")
	if err != nil {
		t.Fatalf("GetByUser err: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("reads must hit only the canonical backend, got %d", len(got))
	}
}

func TestMultiStore_EndFansOut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a, b := memstore.NewSessionBackend(), memstore.NewSessionBackend()
	m, _ := NewMultiStore(a, b)

	s := newSession("ses-1", "usr-1")
	if _, err := m.Save(ctx, s); err != nil {
		t.Fatalf("Save err: %v", err)
	}
	if err := m.End(ctx, s); err != nil {
		t.Fatalf("End err: %v", err)
	}
	if a.EndCalls() != 1 || b.EndCalls() != 1 {
		t.Fatalf("End must reach every backend: got %d/%d", a.EndCalls(), b.EndCalls())
	}
}
