package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Message is one outgoing HTML email.
type Message struct {
	To      []string
	Subject string
	HTML    string
	ReplyTo string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	NoTLS    bool
}

// SMTPMailer delivers through an SMTP relay with go-mail.
type SMTPMailer struct {
	cfg SMTPConfig
	log *zap.Logger
}

func NewSMTPMailer(cfg SMTPConfig, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	mm := mail.NewMsg()
	if err := mm.From(m.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := mm.To(msg.To...); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := mm.ReplyTo(msg.ReplyTo); err != nil {
			return fmt.Errorf("mail reply-to: %w", err)
		}
	}
	mm.Subject(msg.Subject)
	mm.SetCharset(mail.CharsetUTF8)
	mm.SetBodyString(mail.TypeTextHTML, msg.HTML)

	opts := []mail.Option{mail.WithPort(m.cfg.Port)}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
		)
	}
	if m.cfg.NoTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, mm); err != nil {
		return fmt.Errorf("mail send: %w", err)
	}
	m.log.Info("mail sent", zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// LogMailer only logs messages. Used when no SMTP host is configured.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info("mail (not delivered)",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.HTML)),
	)
	return nil
}
