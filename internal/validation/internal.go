package validation

import "strings"

// AnonymizedLoginDomain es el dominio placeholder que reciben los
// logins anonimizados. Es un TLD inválido a propósito: nunca rutea.
const AnonymizedLoginDomain = "anonymous.invalid"

// Dominios de cuentas internas y de servicio. Estas cuentas no pueden
// autenticarse vía user tokens de terceros.
var internalLoginSuffixes = []string{
	"@docuplane.com",
	"@" + AnonymizedLoginDomain,
}

// IsInternalLogin reporta si el login pertenece a una cuenta interna o
// anonimizada.
func IsInternalLogin(login string) bool {
	lowered := strings.ToLower(strings.TrimSpace(login))
	for _, suffix := range internalLoginSuffixes {
		if strings.HasSuffix(lowered, suffix) {
			return true
		}
	}
	return false
}
