package notification_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/nizwa-nursing/cpd-portal/internal/core/events"
	"github.com/nizwa-nursing/cpd-portal/internal/notification"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingSender struct {
	mu    sync.Mutex
	sent  []notification.SendRequest
	err   error
	block chan struct{}
}

func (s *recordingSender) Send(_ context.Context, req notification.SendRequest) (notification.SendResult, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, req)
	return notification.SendResult{MessageID: "m-1"}, s.err
}

func (s *recordingSender) Sent() []notification.SendRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notification.SendRequest(nil), s.sent...)
}

type capturingQueue struct {
	jobs []notification.Job
}

func (q *capturingQueue) Enqueue(job notification.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

var _ = Describe("Notifications", func() {
	var slogger *slog.Logger

	BeforeEach(func() {
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	})

	Describe("Dispatcher", func() {
		It("delivers queued mail through the sender", func() {
			sender := &recordingSender{}
			d := notification.NewDispatcher(sender, notification.DispatcherConfig{MaxWorkers: 2}, slogger)
			DeferCleanup(d.Shutdown)

			Expect(d.Enqueue(notification.Job{ID: "1", Request: notification.SendRequest{To: []string{"a@example.com"}}})).To(Succeed())
			Expect(d.Enqueue(notification.Job{ID: "2", Request: notification.SendRequest{To: []string{"b@example.com"}}})).To(Succeed())

			Eventually(func() int { return len(sender.Sent()) }).Should(Equal(2))
		})

		It("keeps working after a delivery failure", func() {
			sender := &recordingSender{err: errors.New("resend down")}
			d := notification.NewDispatcher(sender, notification.DispatcherConfig{MaxWorkers: 1}, slogger)
			DeferCleanup(d.Shutdown)

			Expect(d.Enqueue(notification.Job{ID: "1"})).To(Succeed())
			Expect(d.Enqueue(notification.Job{ID: "2"})).To(Succeed())
			Eventually(func() int { return len(sender.Sent()) }).Should(Equal(2))
		})

		It("drops mail when the queue is full", func() {
			sender := &recordingSender{block: make(chan struct{})}
			d := notification.NewDispatcher(sender, notification.DispatcherConfig{MaxWorkers: 1, JobQueueSize: 1}, slogger)
			DeferCleanup(d.Shutdown)
			DeferCleanup(func() { close(sender.block) })

			var err error
			for i := 0; i < 10 && err == nil; i++ {
				err = d.Enqueue(notification.Job{ID: "x"})
			}
			Expect(err).To(MatchError(notification.ErrQueueFull))
		})

		It("drains accepted mail before returning", func() {
			sender := &recordingSender{}
			d := notification.NewDispatcher(sender, notification.DispatcherConfig{MaxWorkers: 1}, slogger)
			DeferCleanup(d.Shutdown)

			for _, id := range []string{"1", "2", "3"} {
				Expect(d.Enqueue(notification.Job{ID: id})).To(Succeed())
			}
			Expect(d.Drain(context.Background())).To(Succeed())
			Expect(sender.Sent()).To(HaveLen(3))
		})

		It("stops draining when the context ends", func() {
			sender := &recordingSender{block: make(chan struct{})}
			d := notification.NewDispatcher(sender, notification.DispatcherConfig{MaxWorkers: 1}, slogger)
			DeferCleanup(d.Shutdown)
			DeferCleanup(func() { close(sender.block) })

			Expect(d.Enqueue(notification.Job{ID: "stuck"})).To(Succeed())
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			Expect(d.Drain(ctx)).To(MatchError(context.Canceled))
		})

		It("refuses work after shutdown", func() {
			d := notification.NewDispatcher(&recordingSender{}, notification.DispatcherConfig{}, slogger)
			d.Shutdown()
			Expect(d.Enqueue(notification.Job{ID: "late"})).To(MatchError(context.Canceled))
		})
	})

	Describe("RegistrationNotifier", func() {
		var (
			queue    *capturingQueue
			notifier *notification.RegistrationNotifier
		)

		BeforeEach(func() {
			queue = &capturingQueue{}
			notifier = notification.NewRegistrationNotifier(queue, "cpd@example.com", "Nizwa Hospital", slogger)
		})

		It("queues a confirmation for a staff member with an email", func() {
			ev := events.NewRegistrationSucceededEvent("p1", "E7", "Basic Life Support", "N200", "Maryam", "maryam@example.com")
			Expect(notifier.Handle(context.Background(), ev)).To(Succeed())

			Expect(queue.jobs).To(HaveLen(1))
			req := queue.jobs[0].Request
			Expect(req.To).To(Equal([]string{"maryam@example.com"}))
			Expect(req.ReplyTo).To(Equal("cpd@example.com"))
			Expect(req.Subject).To(Equal("CPD registration confirmed: Basic Life Support"))
			Expect(req.HTML).To(ContainSubstring("Dear Maryam"))
			Expect(req.HTML).To(ContainSubstring("Nizwa Hospital"))
		})

		It("escapes backend text in the mail body", func() {
			ev := events.NewRegistrationSucceededEvent("p1", "E7", "<b>BLS</b>", "N200", "", "x@example.com")
			Expect(notifier.Handle(context.Background(), ev)).To(Succeed())
			Expect(queue.jobs[0].Request.HTML).To(ContainSubstring("&lt;b&gt;BLS&lt;/b&gt;"))
			Expect(queue.jobs[0].Request.HTML).To(ContainSubstring("Dear colleague"))
		})

		It("skips staff without an email", func() {
			ev := events.NewRegistrationSucceededEvent("p1", "E7", "BLS", "N200", "Maryam", "")
			Expect(notifier.Handle(context.Background(), ev)).To(Succeed())
			Expect(queue.jobs).To(BeEmpty())
		})

		It("rejects other event types", func() {
			Expect(notifier.Handle(context.Background(), events.NewEventCreatedEvent("E1", "BLS", "A1"))).NotTo(Succeed())
		})
	})
})
