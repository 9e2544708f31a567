package password

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBCryptCost es el cost factor por defecto. El cost queda
// embebido en el propio hash, no se persiste por separado.
const DefaultBCryptCost = 10

// BCryptHash es la variante de producción.
type BCryptHash struct {
	encoded string
}

// NewBCrypt hashea una contraseña en claro con el cost dado.
// La comparación y el hashing son CPU-bound; los callers concurrentes
// no se bloquean entre sí porque el runtime los agenda en paralelo.
func NewBCrypt(ctx context.Context, plain string, cost int) (*BCryptHash, error) {
	if cost <= 0 {
		cost = DefaultBCryptCost
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return nil, err
	}
	return &BCryptHash{encoded: string(raw)}, nil
}

func deserializeBCrypt(details string) (Hash, error) {
	return &BCryptHash{encoded: details}, nil
}

func (h *BCryptHash) Algorithm() Algorithm { return AlgorithmBCrypt }

func (h *BCryptHash) SerializeDetails() string { return h.encoded }

func (h *BCryptHash) Validate(ctx context.Context, candidate string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := bcrypt.CompareHashAndPassword([]byte(h.encoded), []byte(candidate))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
