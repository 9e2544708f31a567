// Package cache provee un cache chico multi-backend (memoria para
// dev/test, redis para producción). Acá se cachean settings de cuenta
// para no pegarle al account service en cada heartbeat de sesión.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indica que la key no existe o expiró.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound verifica si el error es por key inexistente.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor con TTL. Si ttl es 0, no expira.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete elimina una key.
	Delete(ctx context.Context, key string) error

	// Close cierra la conexión subyacente.
	Close() error
}
