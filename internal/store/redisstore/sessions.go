package redisstore

import (
	"context"
	"encoding/json"

	"github.com/docuplane/credentiald/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionBackend es el backend canónico (efímero) del fan-out de
// sesiones: un hash por usuario, sessionId -> sesión serializada.
// Redis puede evictar bajo presión de memoria; el backend durable
// existe justamente para eso.
type SessionBackend struct {
	client *redis.Client
	prefix string
}

func NewSessionBackend(client *redis.Client, prefix string) *SessionBackend {
	if prefix == "" {
		prefix = "sessions"
	}
	return &SessionBackend{client: client, prefix: prefix}
}

func (b *SessionBackend) userKey(userID string) string {
	return b.prefix + ":user:" + userID
}

func (b *SessionBackend) Save(ctx context.Context, s *domain.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return b.client.HSet(ctx, b.userKey(s.UserID), s.SessionID, raw).Err()
}

func (b *SessionBackend) GetByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	entries, err := b.client.HGetAll(ctx, b.userKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Session, 0, len(entries))
	for _, raw := range entries {
		var s domain.Session
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			// Entrada corrupta: se saltea, no tumba el login.
			continue
		}
		out = append(out, &s)
	}
	return out, nil
}

func (b *SessionBackend) End(ctx context.Context, s *domain.Session) error {
	return b.EndByIDs(ctx, s.UserID, s.SessionID)
}

func (b *SessionBackend) EndByIDs(ctx context.Context, userID, sessionID string) error {
	return b.client.HDel(ctx, b.userKey(userID), sessionID).Err()
}

// Interface check.
var _ domain.SessionBackend = (*SessionBackend)(nil)
