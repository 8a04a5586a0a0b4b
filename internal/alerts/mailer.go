package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/Sajeel041/FIX-POINT/internal/config"
)

// Mailer delivers one rendered envelope.
type Mailer interface {
	Send(ctx context.Context, env EmailEnvelope) error
}

// NewMailer builds the provider selected by MAIL_PROVIDER and puts it behind
// a circuit breaker.
func NewMailer(cfg config.MailConfig, log *zap.Logger) (Mailer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var m Mailer
	switch cfg.Provider {
	case "smtp":
		if cfg.SMTPHost == "" || cfg.SMTPPort == 0 || cfg.From == "" {
			return nil, fmt.Errorf("smtp not configured: set SMTP_HOST, SMTP_PORT, SMTP_FROM (or set MAIL_PROVIDER=plunk)")
		}
		m = NewSMTPMailer(cfg)
	case "plunk":
		p, err := NewPlunkMailer(cfg, nil)
		if err != nil {
			return nil, err
		}
		m = p
	case "log", "":
		return LogMailer{Log: log}, nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
	return NewBreakerMailer(cfg.Provider, m, log), nil
}

// SMTPMailer sends through an SMTP relay with gomail.
type SMTPMailer struct {
	dialer  *gomail.Dialer
	from    string
	replyTo string
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer:  gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:    cfg.From,
		replyTo: cfg.ReplyTo,
	}
}

func (s *SMTPMailer) Send(_ context.Context, env EmailEnvelope) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", env.To)
	msg.SetHeader("Subject", env.Subject)
	if s.replyTo != "" {
		msg.SetHeader("Reply-To", s.replyTo)
	}
	msg.SetBody(contentType(env.Body), env.Body)
	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func contentType(body string) string {
	lb := strings.ToLower(body)
	if strings.Contains(lb, "<html") || strings.Contains(lb, "<body") || strings.Contains(lb, "<!doctype html") {
		return "text/html"
	}
	return "text/plain"
}

// LogMailer writes envelopes to the log instead of sending them.
type LogMailer struct {
	Log *zap.Logger
}

func (l LogMailer) Send(_ context.Context, env EmailEnvelope) error {
	l.Log.Info("email (log provider)",
		zap.String("to", env.To),
		zap.String("subject", env.Subject),
		zap.Int("body_bytes", len(env.Body)),
	)
	return nil
}

// BreakerMailer stops calling a failing provider for a while so queued tasks
// back off through asynq retries instead of hammering it.
type BreakerMailer struct {
	next Mailer
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerMailer(name string, next Mailer, log *zap.Logger) *BreakerMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &BreakerMailer{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "mailer-" + name,
			MaxRequests: 1,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 2
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("circuit breaker state changed",
					zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
			},
		}),
	}
}

func (b *BreakerMailer) Send(ctx context.Context, env EmailEnvelope) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Send(ctx, env)
	})
	return err
}

func (b *BreakerMailer) State() gobreaker.State {
	return b.cb.State()
}
