// Package validation contiene validaciones de input del servicio.
package validation

import "regexp"

// Los logins son emails. El chequeo es de plausibilidad sintáctica,
// no de deliverability.
var loginRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const maxLoginLength = 254

// ValidLogin reporta si el string es un login sintácticamente
// plausible.
func ValidLogin(login string) bool {
	if login == "" || len(login) > maxLoginLength {
		return false
	}
	return loginRE.MatchString(login)
}
