// Package token implementa los bearer tokens firmados del servicio:
// one-time-login, URL y user tokens, con su codec de firma y
// verificación.
package token

import (
	"errors"
	"time"
)

// Type discrimina la variante de token. El valor viaja firmado dentro
// del claim, no reordenar.
type Type int

const (
	TypeOneTimeLogin Type = 0
	TypeURL          Type = 1
	// Type 2 está reservado para los tokens de la public API, que son
	// propiedad de otro servicio.
	TypeUser Type = 3
)

var (
	// ErrInvalidToken cubre firma inválida, tipo incorrecto o payload
	// malformado. Distinguible de ErrTokenExpired porque el mensaje
	// hacia el usuario difiere.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indica un token bien formado pasado su expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Token es el contrato común de todas las variantes.
// Un token es válido sii !invalidated && now < expirationDate, más la
// validez propia de los datos de cada variante.
type Token interface {
	Key() string
	Type() Type
	Invalidated() bool
	ExpirationDate() time.Time
	IsExpired() bool
	IsValid() bool
}

type meta struct {
	key            string
	typ            Type
	invalidated    bool
	expirationDate time.Time
}

func (m meta) Key() string               { return m.key }
func (m meta) Type() Type                { return m.typ }
func (m meta) Invalidated() bool         { return m.invalidated }
func (m meta) ExpirationDate() time.Time { return m.expirationDate }

// IsExpired es borde-inclusivo: un token con expirationDate == now ya
// está expirado.
func (m meta) IsExpired() bool {
	return !time.Now().Before(m.expirationDate)
}

// OneTimeLoginToken resuelve a un userId y es single-use: una vez
// seteado Consumed la transición es terminal.
type OneTimeLoginToken struct {
	meta
	UserID   string
	Consumed *time.Time
}

func (t *OneTimeLoginToken) IsValid() bool {
	return !t.invalidated && !t.IsExpired() && t.Consumed == nil
}

// Consume retorna una copia con Consumed seteado a ahora. Persistir la
// copia es responsabilidad del caller; este método no garantiza
// single-use por sí solo.
func (t *OneTimeLoginToken) Consume() *OneTimeLoginToken {
	now := time.Now()
	out := *t
	out.Consumed = &now
	return &out
}

// URLToken es stateless: nunca se persiste, su validez es puramente
// firma + expiry embebido.
type URLToken struct {
	meta
	ACL ACL
}

func (t *URLToken) IsValid() bool {
	return !t.invalidated && !t.IsExpired()
}

// UserToken se verifica contra el secreto propio de la cuenta emisora,
// no contra el secreto del servicio.
type UserToken struct {
	meta
	Sub              string
	ImpersonatedUser string
	IssuedAt         time.Time
}

func (t *UserToken) IsValid() bool {
	return !t.invalidated && !t.IsExpired()
}
