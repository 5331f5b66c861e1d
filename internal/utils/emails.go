package utils

import (
	"log"

	"gopkg.in/gomail.v2"
)

// SMTPConfig carries the mail server settings loaded from the environment.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SendEmail sends an HTML email using the provided SMTP configuration.
func SendEmail(cfg SMTPConfig, to string, subject string, body string) error {
	mailer := gomail.NewMessage()
	mailer.SetHeader("From", cfg.Username)
	mailer.SetHeader("To", to)
	mailer.SetHeader("Subject", subject)
	mailer.SetBody("text/html", body)

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	if err := dialer.DialAndSend(mailer); err != nil {
		log.Printf("Failed to send email: %v", err)
		return err
	}

	log.Printf("Email sent successfully to %s", to)
	return nil
}
