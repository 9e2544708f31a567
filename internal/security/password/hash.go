// Package password implementa el hashing de contraseñas con soporte
// multi-algoritmo. Cada hash serializado lleva su tag de algoritmo,
// así el esquema puede migrarse sin tocar las filas existentes.
package password

import (
	"context"
	"encoding/json"
	"fmt"
)

// Algorithm identifica el algoritmo de hashing. El valor se persiste,
// nunca reordenar ni reutilizar tags.
type Algorithm int

const (
	AlgorithmClearText Algorithm = 0
	AlgorithmBCrypt    Algorithm = 1
)

// Hash es el contrato común de todas las variantes.
type Hash interface {
	// Algorithm retorna el tag persistido de la variante.
	Algorithm() Algorithm

	// Validate compara un candidato contra el hash almacenado.
	// Un mismatch retorna (false, nil); error solo en fallas reales.
	Validate(ctx context.Context, candidate string) (bool, error)

	// SerializeDetails retorna el secreto almacenado tal cual
	// (cleartext o hash bcrypt codificado).
	SerializeDetails() string
}

// CannotDeserializeError indica un payload con tag de algoritmo
// desconocido. Nunca se cae a una variante más débil por defecto.
type CannotDeserializeError struct {
	Algorithm Algorithm
}

func (e *CannotDeserializeError) Error() string {
	return fmt.Sprintf("password: cannot deserialize hash with algorithm %d", int(e.Algorithm))
}

type serialized struct {
	Algorithm Algorithm `json:"algorithm"`
	Details   string    `json:"details"`
}

// deserializers es la tabla de dispatch por tag. Agregar un algoritmo
// significa agregar una variante y una entrada acá.
var deserializers = map[Algorithm]func(details string) (Hash, error){
	AlgorithmClearText: deserializeClearText,
	AlgorithmBCrypt:    deserializeBCrypt,
}

// Serialize retorna la forma persistida {"algorithm":N,"details":"..."}.
func Serialize(h Hash) (string, error) {
	raw, err := json.Marshal(serialized{Algorithm: h.Algorithm(), Details: h.SerializeDetails()})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Deserialize reconstruye un Hash desde su forma persistida,
// despachando únicamente por el tag de algoritmo.
func Deserialize(payload string) (Hash, error) {
	var s serialized
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return nil, fmt.Errorf("password: malformed hash payload: %w", err)
	}
	fn, ok := deserializers[s.Algorithm]
	if !ok {
		return nil, &CannotDeserializeError{Algorithm: s.Algorithm}
	}
	return fn(s.Details)
}
