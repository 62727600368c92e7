package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/nizwa-nursing/cpd-portal/internal/core/events"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<p>Dear {{or .StaffName "colleague"}},</p>
<p>You have been registered for <strong>{{or .EventName .EventID}}</strong>.</p>
<p>Staff ID: {{.StaffID}}</p>
<p>{{.Institution}} Nursing CPD</p>`))

type confirmation struct {
	StaffName   string
	StaffID     string
	EventID     string
	EventName   string
	Institution string
}

type Enqueuer interface {
	Enqueue(job Job) error
}

// RegistrationNotifier emails a confirmation to the registered staff member.
type RegistrationNotifier struct {
	queue       Enqueuer
	replyTo     string
	institution string
	logger      *slog.Logger
}

func NewRegistrationNotifier(queue Enqueuer, replyTo, institution string, logger *slog.Logger) *RegistrationNotifier {
	return &RegistrationNotifier{queue: queue, replyTo: replyTo, institution: institution, logger: logger}
}

// Handle is an events.Handler for registration.succeeded. Registrations
// without a known staff email are skipped.
func (n *RegistrationNotifier) Handle(ctx context.Context, ev events.Event) error {
	reg, ok := ev.(*events.RegistrationSucceededEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T for registration notifier", ev)
	}
	if reg.StaffEmail == "" {
		n.logger.DebugContext(ctx, "no email on file, skipping confirmation", "staff_id", reg.StaffID)
		return nil
	}

	var body bytes.Buffer
	err := confirmationTmpl.Execute(&body, confirmation{
		StaffName:   reg.StaffName,
		StaffID:     reg.StaffID,
		EventID:     reg.CPDEventID,
		EventName:   reg.EventName,
		Institution: n.institution,
	})
	if err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}

	subject := "CPD registration confirmed"
	if reg.EventName != "" {
		subject = "CPD registration confirmed: " + reg.EventName
	}
	return n.queue.Enqueue(Job{
		ID: reg.EventID(),
		Request: SendRequest{
			To:      []string{reg.StaffEmail},
			ReplyTo: n.replyTo,
			Subject: subject,
			HTML:    body.String(),
		},
	})
}
