package domain

import "errors"

var (
	// ErrRateLimited indica que el circuit breaker de logins fallidos
	// está abierto para ese login. Nunca se expone el conteo restante.
	ErrRateLimited = errors.New("too many failed login attempts")

	// ErrLoginNotFound indica que el login no existe entre las
	// credenciales no borradas.
	ErrLoginNotFound = errors.New("login not found")

	// ErrUserIDNotFound indica que no hay credencial para ese userId.
	ErrUserIDNotFound = errors.New("user id not found")

	// ErrInvalidPassword indica mismatch de contraseña o credencial
	// bloqueada (indistinguibles hacia afuera).
	ErrInvalidPassword = errors.New("invalid password")

	// ErrInvalidLogin indica que el login no es un identificador
	// sintácticamente plausible.
	ErrInvalidLogin = errors.New("invalid login")

	// ErrInvalidCredential indica estado malformado de la credencial
	// (ej: login y userId apuntan a filas distintas en un upsert).
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrSessionNotFound indica que la sesión referida no existe.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired indica que la sesión referida ya no existe al
	// emitir un access token.
	ErrSessionExpired = errors.New("session expired")

	// ErrUnauthorized indica fallas de autorización a nivel caller
	// (ej: impersonación cross-tenant).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound es el sentinel genérico de los stores.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica un conflicto (duplicado, constraint violation).
	ErrConflict = errors.New("conflict")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict verifica si el error es ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsLoginFailure agrupa los errores que el HTTP layer colapsa en un
// único "invalid credentials" para no permitir enumeración de cuentas.
func IsLoginFailure(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrLoginNotFound) ||
		errors.Is(err, ErrInvalidPassword)
}
