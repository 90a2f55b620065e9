package reminder

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var ErrNotConfigured = errors.New("email is not configured")

// Disabled is the sender used when no SMTP credentials are set.
type Disabled struct{}

func (Disabled) Send(context.Context, Message) error { return ErrNotConfigured }

// SMTPSender delivers mail through an authenticated relay. smtp.SendMail
// upgrades to STARTTLS whenever the server offers it.
type SMTPSender struct {
	Server   string
	Port     int
	User     string
	Password string
	From     string
}

func (s SMTPSender) from() string {
	if s.From != "" {
		return s.From
	}
	return s.User
}

func (s SMTPSender) Send(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(s.Server, strconv.Itoa(s.Port))
	auth := smtp.PlainAuth("", s.User, s.Password, s.Server)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, s.from(), []string{msg.To}, s.format(msg))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s SMTPSender) format(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from())
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}
