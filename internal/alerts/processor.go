package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/Sajeel041/FIX-POINT/internal/config"
)

// Processor delivers e-mail tasks.
type Processor struct {
	mailer Mailer
	log    *zap.Logger
}

func NewProcessor(m Mailer, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{mailer: m, log: log}
}

// Mux routes every e-mail task type to the processor.
func (p *Processor) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	for _, task := range []string{
		TaskWelcomeEmail,
		TaskOfferReceived,
		TaskMerchantSelected,
		TaskBookingCreated,
		TaskBookingStatus,
		TaskMessageNew,
	} {
		mux.HandleFunc(task, p.handleEmail)
	}
	return mux
}

// handleEmail sends the envelope rendered at enqueue time. Malformed payloads
// are skipped since retrying cannot fix them.
func (p *Processor) handleEmail(ctx context.Context, t *asynq.Task) error {
	var payload struct {
		Envelope EmailEnvelope `json:"envelope"`
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		p.log.Error("undecodable alert payload", zap.String("task", t.Type()), zap.Error(err))
		return fmt.Errorf("decode %s: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if payload.Envelope.To == "" {
		p.log.Warn("alert without recipient", zap.String("task", t.Type()))
		return fmt.Errorf("%s has no recipient: %w", t.Type(), asynq.SkipRetry)
	}
	if err := p.mailer.Send(ctx, payload.Envelope); err != nil {
		p.log.Error("email send failed", zap.String("task", t.Type()), zap.String("to", payload.Envelope.To), zap.Error(err))
		return err
	}
	p.log.Info("email sent", zap.String("task", t.Type()), zap.String("to", payload.Envelope.To))
	return nil
}

// NewServer configures the asynq worker server for the e-mail queue.
func NewServer(cfg config.AlertsConfig, log *zap.Logger) *asynq.Server {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	return asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueEmails: 10},
		Logger:      log.Sugar(),
	})
}
