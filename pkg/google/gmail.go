package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/mail"

	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"
)

// GmailMailer sends plain-text mail as the authorized user.
type GmailMailer struct {
	srv  *gmail.Service
	from string
	log  *zap.Logger
}

// NewGmailMailer returns a mailer. from may be empty, in which case Gmail
// fills in the authorized account.
func NewGmailMailer(srv *gmail.Service, from string, log *zap.Logger) *GmailMailer {
	return &GmailMailer{srv: srv, from: from, log: nopIfNil(log)}
}

func (m *GmailMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	raw, err := buildMessage(m.from, to, subject, body)
	if err != nil {
		return err
	}
	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	sent, err := m.srv.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	m.log.Info("mail sent", zap.String("to", to), zap.String("id", sent.Id))
	return nil
}

// buildMessage renders an RFC 2822 message with a UTF-8 subject and a
// base64 body.
func buildMessage(from, to, subject, body string) ([]byte, error) {
	rcpt, err := mail.ParseAddress(to)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	var buf bytes.Buffer
	if from != "" {
		sender, err := mail.ParseAddress(from)
		if err != nil {
			return nil, fmt.Errorf("invalid sender %q: %w", from, err)
		}
		fmt.Fprintf(&buf, "From: %s\r\n", sender)
	}
	fmt.Fprintf(&buf, "To: %s\r\n", rcpt)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.BEncoding.Encode("UTF-8", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")

	encoded := base64.StdEncoding.EncodeToString([]byte(body))
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76] + "\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded + "\r\n")
	return buf.Bytes(), nil
}
