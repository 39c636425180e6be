// Copyright (c) 2026 Vacaplan. All rights reserved.

package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/vacaplan/vacaplan/internal/platform/config"
)

// # SMTP Delivery

// SMTPSender delivers mail over SMTP with STARTTLS.
type SMTPSender struct {
	host   string
	port   int
	user   string
	pass   string
	from   string
	logger *slog.Logger
}

// NewSMTPSender constructs an SMTP backed [Sender] from configuration.
func NewSMTPSender(cfg *config.Config, logger *slog.Logger) *SMTPSender {
	return &SMTPSender{
		host:   cfg.SMTPHost,
		port:   cfg.SMTPPort,
		user:   cfg.SMTPUser,
		pass:   cfg.SMTPPass,
		from:   cfg.MailFrom,
		logger: logger,
	}
}

/*
Send delivers one message over SMTP.

Description: Dials with a 5 second handshake timeout, upgrades the
connection with STARTTLS (TLS 1.2 minimum), authenticates with PLAIN,
and writes an RFC 5322 message. Addresses are parsed with net/mail
before use so CRLF sequences cannot reach the header block.

Parameters:
  - context: context.Context bounding the dial
  - message: Message

Returns:
  - error: Address, transport, or protocol failures
*/
func (sender *SMTPSender) Send(context context.Context, message Message) error {
	recipient, err := sanitizeAddress(message.To)
	if err != nil {
		return err
	}
	from, err := sanitizeAddress(sender.from)
	if err != nil {
		return fmt.Errorf("notify: invalid from address: %w", err)
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	connection, err := dialer.DialContext(context, "tcp", fmt.Sprintf("%s:%d", sender.host, sender.port))
	if err != nil {
		return fmt.Errorf("notify: smtp dial failed: %w", err)
	}
	defer connection.Close()

	client, err := smtp.NewClient(connection, sender.host)
	if err != nil {
		return fmt.Errorf("notify: smtp handshake failed: %w", err)
	}
	defer client.Quit()

	if err := client.StartTLS(&tls.Config{ServerName: sender.host, MinVersion: tls.VersionTLS12}); err != nil {
		return fmt.Errorf("notify: starttls failed: %w", err)
	}

	if err := client.Auth(smtp.PlainAuth("", sender.user, sender.pass, sender.host)); err != nil {
		return fmt.Errorf("notify: smtp auth failed: %w", err)
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("notify: MAIL failed: %w", err)
	}
	if err := client.Rcpt(recipient); err != nil {
		return fmt.Errorf("notify: RCPT failed: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("notify: DATA failed: %w", err)
	}
	if _, err := writer.Write(buildRFC5322(from, recipient, message)); err != nil {
		return fmt.Errorf("notify: body write failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("notify: delivery finalize failed: %w", err)
	}

	sender.logger.Info("email_sent", slog.String("template_subject", message.Subject))
	return nil
}

func buildRFC5322(from, to string, message Message) []byte {
	var builder strings.Builder
	builder.WriteString("From: " + from + "\r\n")
	builder.WriteString("To: " + to + "\r\n")
	builder.WriteString("Subject: " + message.Subject + "\r\n")
	builder.WriteString("Date: " + time.Now().UTC().Format(time.RFC1123Z) + "\r\n")
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(message.Body)
	return []byte(builder.String())
}

// sanitizeAddress parses an address with net/mail and rejects CRLF so
// header injection cannot reach the wire.
func sanitizeAddress(address string) (string, error) {
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return "", fmt.Errorf("notify: invalid address: %w", err)
	}
	if strings.ContainsAny(parsed.Address, "\r\n") || strings.ContainsAny(parsed.Name, "\r\n") {
		return "", fmt.Errorf("notify: address contains line breaks")
	}
	return parsed.Address, nil
}

// # Development Delivery

// LogSender writes messages to the structured log instead of the
// network. Used when no SMTP host is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs a log backed [Sender].
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message instead of delivering it.
func (sender *LogSender) Send(_ context.Context, message Message) error {
	sender.logger.Info("email_logged",
		slog.String("to", message.To),
		slog.String("subject", message.Subject),
		slog.String("body", message.Body),
	)
	return nil
}
