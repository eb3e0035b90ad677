package mailer

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/wneessen/go-mail"
)

const otpSubject = "MindSpace Registration OTP"

// Sender delivers registration codes.
type Sender interface {
	SendOTP(ctx context.Context, email, code string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// CodeTTL is how long a sent code stays valid. It is quoted in the
	// message body.
	CodeTTL time.Duration
}

// SMTPSender sends plain text mail through an SMTP relay, using STARTTLS
// when the server offers it.
type SMTPSender struct {
	cfg  SMTPConfig
	send func(ctx context.Context, msg *mail.Msg) error
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return &SMTPSender{
		cfg: cfg,
		send: func(ctx context.Context, msg *mail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		},
	}, nil
}

func (s *SMTPSender) SendOTP(ctx context.Context, email, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := s.otpMessage(email, code)
	if err != nil {
		return err
	}
	if err := s.send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", email, err)
	}
	log.Printf("[mailer] email sent to %s", email)
	return nil
}

func (s *SMTPSender) otpMessage(to, code string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", s.cfg.From, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(otpSubject)
	msg.SetBodyString(mail.TypeTextPlain, otpBody(code, s.cfg.CodeTTL))
	return msg, nil
}

func otpBody(code string, ttl time.Duration) string {
	return "Your OTP for MindSpace registration is: " + code + ". It expires in " + formatTTL(ttl) + "."
}

// formatTTL spells whole minutes out and falls back to Duration.String.
func formatTTL(d time.Duration) string {
	if d <= 0 || d%time.Minute != 0 {
		return d.String()
	}
	m := int(d / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return strconv.Itoa(m) + " minutes"
}

// LogSender writes codes to the process log. Used when no SMTP host is
// configured.
type LogSender struct{}

func (LogSender) SendOTP(ctx context.Context, email, code string) error {
	log.Printf("[mailer] OTP for %s: %s", email, code)
	return nil
}
