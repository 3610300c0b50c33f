package notification

import (
	"context"
	"fmt"
	"mime/quotedprintable"
	"net/smtp"
	"strings"

	extErrors "github.com/pkg/errors"
)

// MailerOptions contains the SMTP configuration for direct delivery
type MailerOptions struct {
	Auth     smtp.Auth
	From     string
	Hostname string // host:port of the submission endpoint
}

// Mailer delivers messages synchronously over SMTP
type Mailer struct {
	MailerOptions
}

var _ Sender = &Mailer{}

// NewMailer returns a Sender that submits mail directly over SMTP
func NewMailer(option MailerOptions) (*Mailer, error) {
	if len(option.From) == 0 {
		return nil, fmt.Errorf("empty From is invalid")
	}
	if len(option.Hostname) == 0 {
		return nil, fmt.Errorf("empty Hostname is invalid")
	}
	return &Mailer{
		MailerOptions: option,
	}, nil
}

const altBoundary = "=_alt_df_billing"

// Send submits the message as multipart/alternative with text and HTML parts
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("empty To is invalid")
	}
	body, err := encodeMessage(m.From, msg)
	if err != nil {
		return extErrors.Wrap(err, "Cannot encode message")
	}
	if err := smtp.SendMail(m.Hostname, m.Auth, m.From, []string{msg.To}, body); err != nil {
		return extErrors.Wrap(err, "Cannot submit message via SMTP")
	}
	return nil
}

func encodeMessage(from string, msg Message) ([]byte, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", altBoundary)
	b.WriteString("\r\n")

	for _, part := range []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	} {
		fmt.Fprintf(&b, "--%s\r\n", altBoundary)
		fmt.Fprintf(&b, "Content-Type: %s\r\n", part.contentType)
		b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
		b.WriteString("\r\n")
		qp := quotedprintable.NewWriter(&b)
		if _, err := qp.Write([]byte(part.content)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
		b.WriteString("\r\n")
	}
	fmt.Fprintf(&b, "--%s--\r\n", altBoundary)

	return []byte(b.String()), nil
}
