package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nizwa-nursing/cpd-portal/internal/event"
	"github.com/nizwa-nursing/cpd-portal/internal/registration/sqlxstore"
	"github.com/nizwa-nursing/cpd-portal/internal/remoteapi"
	"github.com/nizwa-nursing/cpd-portal/internal/storage"
)

var (
	listSearch     string
	listDepartment string
	listStatus     string
	listLimit      int
	attemptsLimit  int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect CPD events and registration attempts",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List upcoming events with the portal's filters",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		loc, err := cfg.UI.Location()
		if err != nil {
			return err
		}

		remote := remoteapi.NewClient(remoteapi.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout}, log)
		catalog := event.NewCatalog(remote, loc, log)
		if err := catalog.Load(ctx); err != nil {
			return err
		}

		department := listDepartment
		if !cmd.Flags().Changed("department") {
			department = cfg.UI.DefaultDepartment
		}
		limit := listLimit
		if limit <= 0 {
			limit = cfg.UI.EventsPerPage
		}

		view := catalog.View(event.Filter{Search: listSearch, Department: department, Status: listStatus})
		if view.Error != "" {
			return fmt.Errorf("%s", view.Error)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDATE\tNAME\tDEPARTMENT\tSTATUS\tSPOTS")
		for i, e := range view.Events {
			if i == limit {
				break
			}
			date := "TBA"
			if !e.Date.IsZero() {
				date = e.Date.Format("2006-01-02")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", e.ID, date, e.Name, e.Department, e.ApprovalStatus, e.Availability())
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d upcoming events\n", min(len(view.Events), limit), view.Total)
		return nil
	},
}

var eventsAttemptsCmd = &cobra.Command{
	Use:   "attempts [profile-id]",
	Short: "Show the latest registration attempts recorded for a browser profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		handles, err := storage.Open(ctx, cfg.Storage, log)
		if err != nil {
			return err
		}
		defer handles.Close()

		attempts, err := sqlxstore.NewLedgerRepository(handles.X).Recent(ctx, args[0], attemptsLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tACTOR\tEVENT\tSTAFF\tOUTCOME\tMESSAGE")
		for _, a := range attempts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", a.CreatedAt.Format("2006-01-02 15:04"), a.ActorID, a.EventID, a.StaffID, a.Outcome, a.Message)
		}
		return w.Flush()
	},
}

func init() {
	eventsListCmd.Flags().StringVar(&listSearch, "search", "", "match name, description or facilitator")
	eventsListCmd.Flags().StringVar(&listDepartment, "department", "", "exact department, defaults to ui.default_department")
	eventsListCmd.Flags().StringVar(&listStatus, "status", "", "Approved or Pending")
	eventsListCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum rows, defaults to ui.events_per_page")
	eventsAttemptsCmd.Flags().IntVar(&attemptsLimit, "limit", 20, "maximum rows")

	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsAttemptsCmd)
}
