package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nizwa-nursing/cpd-portal/internal/core/events"
	"github.com/nizwa-nursing/cpd-portal/internal/notification"
)

var (
	notifyTo     string
	notifyName   string
	notifyEvent  string
	notifyDryRun bool
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Registration confirmation email tools",
}

// notifyTestCmd pushes one confirmation through the same worker pool the
// server uses, so the email settings can be checked before going live.
var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a sample registration confirmation",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		if notifyTo == "" {
			return fmt.Errorf("--to is required")
		}

		var sender notification.Sender = notification.NewNoopSender(log)
		if !notifyDryRun {
			if cfg.Email.APIKey == "" || cfg.Email.From == "" {
				return fmt.Errorf("email.api_key and email.from must be set, or use --dry-run")
			}
			sender = notification.NewResendSender(cfg.Email.APIKey, cfg.Email.From, log)
		}

		dispatcher := notification.NewDispatcher(sender, notification.DispatcherConfig{
			MaxWorkers:   1,
			JobQueueSize: 1,
			SendTimeout:  cfg.Email.SendTimeout,
		}, log)

		notifier := notification.NewRegistrationNotifier(dispatcher, cfg.Email.ReplyTo, cfg.App.Institution, log)
		ev := events.NewRegistrationSucceededEvent(cliProfile, "TEST", notifyEvent, "TEST", notifyName, notifyTo)

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		defer dispatcher.Shutdown()
		if err := notifier.Handle(ctx, ev); err != nil {
			return err
		}
		if err := dispatcher.Drain(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "confirmation processed for %s\n", notifyTo)
		return nil
	},
}

func init() {
	notifyTestCmd.Flags().StringVar(&notifyTo, "to", "", "recipient address")
	notifyTestCmd.Flags().StringVar(&notifyName, "name", "Test Nurse", "recipient name")
	notifyTestCmd.Flags().StringVar(&notifyEvent, "event", "Sample CPD Session", "event name in the message")
	notifyTestCmd.Flags().BoolVar(&notifyDryRun, "dry-run", false, "log the message instead of sending it")

	notifyCmd.AddCommand(notifyTestCmd)
}
