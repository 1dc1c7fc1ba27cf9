// Package emails implements the SMTP email dispatcher used for
// verification and password-reset mail.
package emails

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Config holds the SMTP settings plus the link-building context the
// templates need.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// AppName shows up in subjects and bodies.
	AppName string

	// RedirectURL is the frontend base the verification and reset
	// links point at.
	RedirectURL string
}

// Sender sends account emails over SMTP via gomail. It implements
// accounts.EmailSender.
type Sender struct {
	cfg    Config
	dialer *gomail.Dialer
}

// NewSender creates a Sender for the given SMTP configuration.
func NewSender(cfg Config) *Sender {
	return &Sender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// SendVerificationEmail mails the email-verification link.
func (s *Sender) SendVerificationEmail(to, name, code string) error {
	link := fmt.Sprintf("%s/verify-email?code=%s", s.cfg.RedirectURL, code)
	body, err := renderVerification(verificationData{
		Name: name,
		Link: link,
		App:  s.cfg.AppName,
	})
	if err != nil {
		return err
	}
	return s.send(to, fmt.Sprintf("Verify your %s email address", s.cfg.AppName), body)
}

// SendPasswordResetEmail mails the password-reset link.
func (s *Sender) SendPasswordResetEmail(to, name, code string) error {
	link := fmt.Sprintf("%s/reset-password?code=%s", s.cfg.RedirectURL, code)
	body, err := renderPasswordReset(verificationData{
		Name: name,
		Link: link,
		App:  s.cfg.AppName,
	})
	if err != nil {
		return err
	}
	return s.send(to, fmt.Sprintf("Reset your %s password", s.cfg.AppName), body)
}

func (s *Sender) send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending email to %s: %w", to, err)
	}
	return nil
}
