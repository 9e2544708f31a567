// Package email implementa el adapter SMTP para los mails de aviso de
// cambio de contraseña. La composición es deliberadamente mínima: el
// templating rico es de otro servicio.
package email

import "context"

// PasswordMailer notifica a un usuario que su contraseña cambió.
type PasswordMailer interface {
	// SendPasswordChanged avisa el cambio; byAdmin distingue el texto
	// cuando lo hizo un administrador.
	SendPasswordChanged(ctx context.Context, to string, byAdmin bool) error
}

// NopMailer descarta los mails (dev, tests).
type NopMailer struct{}

func (NopMailer) SendPasswordChanged(context.Context, string, bool) error { return nil }
