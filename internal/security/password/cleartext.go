package password

import (
	"context"
	"crypto/subtle"
)

// ClearTextHash guarda la contraseña en claro. Solo para datos legacy
// y fixtures de test; producción usa siempre bcrypt.
type ClearTextHash struct {
	secret string
}

// NewClearText envuelve una contraseña en claro sin transformarla.
func NewClearText(plain string) *ClearTextHash {
	return &ClearTextHash{secret: plain}
}

func deserializeClearText(details string) (Hash, error) {
	return &ClearTextHash{secret: details}, nil
}

func (h *ClearTextHash) Algorithm() Algorithm { return AlgorithmClearText }

func (h *ClearTextHash) SerializeDetails() string { return h.secret }

func (h *ClearTextHash) Validate(_ context.Context, candidate string) (bool, error) {
	return subtle.ConstantTimeCompare([]byte(h.secret), []byte(candidate)) == 1, nil
}
