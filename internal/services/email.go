package services

import (
	"fmt"
	"html"
	"net/smtp"

	"github.com/devex-hq/devex-api/internal/config"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type EmailService struct {
	cfg      config.SMTPConfig
	baseURL  string
	sendMail sendMailFunc
}

func NewEmailService(cfg config.SMTPConfig, baseURL string) *EmailService {
	return &EmailService{cfg: cfg, baseURL: baseURL, sendMail: smtp.SendMail}
}

func (s *EmailService) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.From != ""
}

// Send is a no-op when SMTP is not configured.
func (s *EmailService) Send(to, subject, body string) error {
	if !s.IsConfigured() {
		return nil
	}

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.cfg.From, to, subject, body)

	if err := s.sendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

func (s *EmailService) SendStreakReminder(to, username string, currentStreak int) error {
	subject := "Don't break your DevEx streak"
	if currentStreak == 0 {
		subject = "Start a new DevEx streak today"
	}

	streakLine := "You haven't logged any progress yet today."
	if currentStreak > 0 {
		streakLine = fmt.Sprintf("You're on a <strong>%d day</strong> streak. Log something before midnight to keep it alive.", currentStreak)
	}

	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Hey %s,</h2>
			<p>%s</p>
			<p><a href="%s/feed/create">Post today's log</a></p>
		</body>
		</html>
	`, html.EscapeString(username), streakLine, s.baseURL)

	return s.Send(to, subject, body)
}
