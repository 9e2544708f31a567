// Package session implementa el store lógico de sesiones sobre N
// backends independientes (uno efímero rápido, uno durable).
package session

import (
	"context"
	"errors"

	"github.com/docuplane/credentiald/internal/domain"
	"golang.org/x/sync/errgroup"
)

// MultiStore fan-outea escrituras a todos los backends y lee solo del
// primero (el canónico, por convención el efímero).
//
// Trade-off aceptado: no hay transacción cross-backend. Si una
// escritura parcial falla, la operación completa falla y el caller no
// puede asumir que la sesión existe en ningún lado; no se reconcilia
// automáticamente. Y como el backend canónico es efímero, GetByUser
// puede sub-reportar respecto del durable si hubo eviction por memoria.
type MultiStore struct {
	backends []domain.SessionBackend
}

// NewMultiStore requiere al menos un backend.
func NewMultiStore(backends ...domain.SessionBackend) (*MultiStore, error) {
	if len(backends) == 0 {
		return nil, errors.New("session: need at least one backend")
	}
	return &MultiStore{backends: backends}, nil
}

func (m *MultiStore) fanOut(ctx context.Context, f func(ctx context.Context, b domain.SessionBackend) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, b := range m.backends {
		b := b
		g.Go(func() error { return f(ctx, b) })
	}
	return g.Wait()
}

// Save escribe la sesión en todos los backends concurrentemente.
// Cualquier falla individual falla la operación completa.
func (m *MultiStore) Save(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	err := m.fanOut(ctx, func(ctx context.Context, b domain.SessionBackend) error {
		return b.Save(ctx, s)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByUser consulta únicamente el backend canónico.
func (m *MultiStore) GetByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	return m.backends[0].GetByUser(ctx, userID)
}

// End termina la sesión en todos los backends.
func (m *MultiStore) End(ctx context.Context, s *domain.Session) error {
	return m.fanOut(ctx, func(ctx context.Context, b domain.SessionBackend) error {
		return b.End(ctx, s)
	})
}

// EndByIDs termina la sesión por ids en todos los backends.
func (m *MultiStore) EndByIDs(ctx context.Context, userID, sessionID string) error {
	return m.fanOut(ctx, func(ctx context.Context, b domain.SessionBackend) error {
		return b.EndByIDs(ctx, userID, sessionID)
	})
}
