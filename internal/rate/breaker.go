// Package rate implementa el circuit breaker de logins fallidos:
// un contador por login con TTL fijo que corta los intentos pasado el
// umbral, exista o no la cuenta.
package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/docuplane/credentiald/internal/domain"
)

const (
	// DefaultThreshold: a partir del intento threshold+1 dentro de la
	// ventana, se rechaza sin consultar el credential store.
	DefaultThreshold = 10

	// DefaultWindow es el TTL del contador.
	DefaultWindow = 10 * time.Minute

	// keyVersion versiona el namespace de keys: cambiar la semántica
	// del breaker nunca colisiona con contadores viejos.
	keyVersion = "v2"
)

// CircuitBreaker throttlea por identidad presentada (el login string
// crudo), no por cuenta resuelta: probar muchas contraseñas contra un
// mismo login siempre cuenta contra el mismo contador.
type CircuitBreaker struct {
	store     domain.RateLimitStore
	threshold int64
	window    time.Duration
}

// NewCircuitBreaker crea el breaker con el umbral y la ventana fijos
// del servicio.
func NewCircuitBreaker(store domain.RateLimitStore) *CircuitBreaker {
	return &CircuitBreaker{
		store:     store,
		threshold: DefaultThreshold,
		window:    DefaultWindow,
	}
}

func (b *CircuitBreaker) key(login string) string {
	return fmt.Sprintf("failed-login:%s:%s", keyVersion, login)
}

// Test incrementa el contador del login y retorna ErrRateLimited si el
// nuevo valor supera el umbral. El TTL queda fijado por el incremento
// que crea la key.
func (b *CircuitBreaker) Test(ctx context.Context, login string) error {
	count, err := b.store.IncrementWithTTL(ctx, b.key(login), b.window)
	if err != nil {
		return err
	}
	if count > b.threshold {
		return domain.ErrRateLimited
	}
	return nil
}

// Reset pone el contador en cero preservando el TTL vigente. Solo se
// llama tras una validación de contraseña exitosa, nunca tras una
// fallida.
func (b *CircuitBreaker) Reset(ctx context.Context, login string) error {
	return b.store.ResetPreservingTTL(ctx, b.key(login))
}
