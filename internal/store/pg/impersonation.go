package pg

import (
	"context"

	"github.com/docuplane/credentiald/internal/domain"
)

// ImpersonationRepository persiste el audit trail de logins con user
// token. Solo inserta; el reporting es de otro servicio.
type ImpersonationRepository struct{ store *Store }

func NewImpersonationRepository(store *Store) *ImpersonationRepository {
	return &ImpersonationRepository{store: store}
}

func (r *ImpersonationRepository) Save(ctx context.Context, rec *domain.ImpersonationRecord) error {
	const q = `
		INSERT INTO impersonated_users (impersonated_user_id, user_id, user_agent, client_ip, created_on)
		VALUES ($1, $2, $3, $4, NOW())`

	_, err := r.store.pool.Exec(ctx, q,
		rec.ImpersonatedUserID, rec.UserID, rec.UserAgent, rec.ClientIP)
	return err
}
