package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sender dispatches account-verification email. It is a collaborator: the
// account service invokes it and logs failures, but registration never fails
// on delivery problems.
type Sender interface {
	SendVerification(ctx context.Context, toEmail string, accountID uuid.UUID, token string) error
}

// LogSender writes the verification link to the log instead of sending mail.
// Default outside production.
type LogSender struct {
	BaseURL string
	Logger  *zap.SugaredLogger
}

func (s LogSender) SendVerification(_ context.Context, toEmail string, accountID uuid.UUID, token string) error {
	s.Logger.Infow("verification email (log sender)",
		"to", toEmail,
		"link", verificationLink(s.BaseURL, accountID, token),
	)
	return nil
}

// SMTPSender sends the verification email over SMTP with STARTTLS.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BaseURL  string
}

func (s SMTPSender) SendVerification(_ context.Context, toEmail string, accountID uuid.UUID, token string) error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	link := verificationLink(s.BaseURL, accountID, token)
	msg := strings.Join([]string{
		"From: " + s.From,
		"To: " + toEmail,
		"Subject: Verify your account",
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"utf-8\"",
		"",
		fmt.Sprintf(`<p>Please verify your account: <a href="%s">%s</a></p>`, link, link),
		"",
	}, "\r\n")
	var a smtp.Auth
	if s.Username != "" {
		a = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}
	return smtp.SendMail(addr, a, s.From, []string{toEmail}, []byte(msg))
}

func verificationLink(baseURL string, accountID uuid.UUID, token string) string {
	return fmt.Sprintf("%s/verify-email/%s/%s", strings.TrimRight(baseURL, "/"), accountID, token)
}
