package email

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/docuplane/credentiald/internal/observability/logger"
	mail "github.com/go-mail/mail"
	"go.uber.org/zap"
)

// SMTPConfig configura el sender.
type SMTPConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	FromEmail string `yaml:"from_email"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	// TLSMode: "auto" | "starttls" | "ssl" | "none"
	TLSMode string `yaml:"tls_mode"`
}

// SMTPSender implementa PasswordMailer vía SMTP.
type SMTPSender struct {
	cfg SMTPConfig
	log *zap.Logger
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.TLSMode == "" {
		cfg.TLSMode = "auto"
	}
	return &SMTPSender{cfg: cfg, log: logger.Named("email")}
}

func (s *SMTPSender) SendPasswordChanged(ctx context.Context, to string, byAdmin bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := "Your password was changed"
	body := "The password for your account was just changed. If this was not you, contact support immediately."
	if byAdmin {
		body = "An administrator changed the password for your account. If you were not expecting this, contact support."
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	switch s.cfg.TLSMode {
	case "ssl":
		d.SSL = true
	case "starttls":
		d.StartTLSPolicy = mail.MandatoryStartTLS
	case "none":
		d.StartTLSPolicy = mail.NoStartTLS
	default:
		d.StartTLSPolicy = mail.OpportunisticStartTLS
	}
	d.TLSConfig = &tls.Config{ServerName: s.cfg.Host}

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("email: send to %s failed: %w", to, err)
	}
	s.log.Debug("password change mail sent", zap.String("to", to), zap.Bool("by_admin", byAdmin))
	return nil
}
