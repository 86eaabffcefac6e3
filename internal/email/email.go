package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/AdSnap-Studio/adsnap/internal/config"
)

// Sender delivers transactional mail over SMTP with STARTTLS.
type Sender struct {
	server   string
	port     int
	sender   string
	password string
}

func NewSender(cfg *config.Config) *Sender {
	return &Sender{
		server:   cfg.SMTP.Server,
		port:     cfg.SMTP.Port,
		sender:   cfg.SMTP.Sender,
		password: cfg.SMTP.Password,
	}
}

// Configured reports whether outgoing mail credentials are set. An
// unconfigured sender is a deployment choice, not an error.
func (s *Sender) Configured() bool {
	return s.sender != "" && s.password != ""
}

// SendPasswordReset mails a reset link. The link expires after one hour and
// works once.
func (s *Sender) SendPasswordReset(to, resetLink string) error {
	if !s.Configured() {
		return fmt.Errorf("email sender not configured")
	}

	subject := "AdSnap Studio - Password Reset Request"
	text := strings.Join([]string{
		"AdSnap Studio - Password Reset Request",
		"",
		"We received a request to reset the password for your AdSnap Studio account.",
		"",
		"Open this link to choose a new password:",
		resetLink,
		"",
		"The link expires in 1 hour and can be used once.",
		"",
		"If you did not request this reset, ignore this email. Your password stays unchanged.",
	}, "\r\n")

	return s.send(to, subject, text)
}

func (s *Sender) send(to, subject, body string) error {
	msg := strings.Join([]string{
		fmt.Sprintf("From: AdSnap Studio <%s>", s.sender),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.server, s.port)
	auth := smtp.PlainAuth("", s.sender, s.password, s.server)
	return smtp.SendMail(addr, auth, s.sender, []string{to}, []byte(msg))
}
