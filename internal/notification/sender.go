package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

type SendRequest struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
}

type SendResult struct {
	MessageID string
	SentAt    time.Time
}

type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}

// ResendSender delivers mail through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	logger *slog.Logger
}

func NewResendSender(apiKey, from string, logger *slog.Logger) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		logger: logger,
	}
}

func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	from := req.From
	if from == "" {
		from = s.from
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
	}
	if req.ReplyTo != "" {
		params.ReplyTo = req.ReplyTo
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		s.logger.ErrorContext(ctx, "resend send failed", "error", err, "to", req.To, "subject", req.Subject)
		return SendResult{}, fmt.Errorf("resend send failed: %w", err)
	}

	s.logger.InfoContext(ctx, "email sent", "message_id", sent.Id, "to", req.To, "subject", req.Subject)
	return SendResult{MessageID: sent.Id, SentAt: time.Now()}, nil
}

// NoopSender logs instead of delivering. It is used when email is disabled.
type NoopSender struct {
	logger *slog.Logger
}

func NewNoopSender(logger *slog.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

func (s *NoopSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	s.logger.InfoContext(ctx, "email delivery disabled, dropping message", "to", req.To, "subject", req.Subject)
	return SendResult{
		MessageID: fmt.Sprintf("noop-%d", time.Now().UnixNano()),
		SentAt:    time.Now(),
	}, nil
}
