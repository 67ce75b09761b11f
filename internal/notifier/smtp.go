package notifier

import (
	"fmt"
	"net/smtp"
	"strings"

	"farmhub/internal/logger"
)

// SMTPNotifier implements Notifier over plain SMTP
type SMTPNotifier struct {
	host       string
	port       int
	username   string
	password   string
	from       string
	senderName string
}

func NewSMTPNotifier(host string, port int, username, password, from, senderName string) *SMTPNotifier {
	return &SMTPNotifier{
		host:       host,
		port:       port,
		username:   username,
		password:   password,
		from:       from,
		senderName: senderName,
	}
}

func (s *SMTPNotifier) SendOTP(to, name, code string) error {
	subject := "Your verification code"
	body := fmt.Sprintf(`Hello %s,

Your verification code is: %s

This code expires in 10 minutes. If you did not request it, ignore this message.`, name, code)

	return s.send(to, subject, body)
}

func (s *SMTPNotifier) SendChallengeAward(to, name, challengeTitle string, points int64) error {
	subject := "Challenge completed"
	body := fmt.Sprintf(`Hello %s,

You completed "%s" and earned %d points. Keep it up!`, name, challengeTitle, points)

	return s.send(to, subject, body)
}

func (s *SMTPNotifier) send(to, subject, body string) error {
	logger.Debug("sending email", "to", to, "subject", subject, "host", s.host)

	headers := []string{
		fmt.Sprintf("From: %s <%s>", s.senderName, s.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
	}
	msg := strings.Join(headers, "\r\n") + "\r\n\r\n" + body

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}
