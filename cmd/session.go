package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nizwa-nursing/cpd-portal/internal/auth"
	"github.com/nizwa-nursing/cpd-portal/internal/remoteapi"
	"github.com/nizwa-nursing/cpd-portal/internal/session"
	"github.com/nizwa-nursing/cpd-portal/internal/session/gormstore"
	"github.com/nizwa-nursing/cpd-portal/internal/storage"
)

// The CLI keeps its own session under a fixed profile in the same store the
// server uses.
const cliProfile = "cli"

var (
	sessionProfile string
	loginStaffID   string
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Sign in to the CPD backend from the command line",
}

var sessionLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd, func(ctx context.Context, store *session.Store, remote *remoteapi.Client) error {
			staffID := strings.TrimSpace(loginStaffID)
			if staffID == "" {
				return fmt.Errorf("--staff-id is required")
			}
			fmt.Fprint(cmd.OutOrStdout(), "Password: ")
			password, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && password == "" {
				return fmt.Errorf("read password: %w", err)
			}

			user, err := remote.Login(ctx, staffID, strings.TrimRight(password, "\r\n"))
			if err != nil {
				return err
			}
			if err := store.Save(ctx, user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nSigned in as %s (%s)\n", user.Name, user.Role)
			return nil
		})
	},
}

var sessionWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored user and effective permissions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd, func(ctx context.Context, store *session.Store, _ *remoteapi.Client) error {
			user, ok := store.Load(ctx)
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			v := auth.Project(user, auth.Derive(user))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", v.Welcome)
			fmt.Fprintf(out, "Staff ID:    %s\n", user.StaffID)
			fmt.Fprintf(out, "Role:        %s\n", user.Role)
			fmt.Fprintf(out, "Department:  %s\n", user.Department)
			fmt.Fprintf(out, "Permissions: %s\n", v.Permissions)
			if v.DepartmentBanner != "" {
				fmt.Fprintln(out, v.DepartmentBanner)
			}
			return nil
		})
	},
}

var sessionLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd, func(ctx context.Context, store *session.Store, _ *remoteapi.Client) error {
			if err := store.Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		})
	},
}

func withSession(cmd *cobra.Command, fn func(ctx context.Context, store *session.Store, remote *remoteapi.Client) error) error {
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

	store := session.NewStore(gormstore.NewKVRepository(handles.Gorm), sessionProfile, log)
	remote := remoteapi.NewClient(remoteapi.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout}, log)
	return fn(ctx, store, remote)
}

func init() {
	sessionCmd.PersistentFlags().StringVar(&sessionProfile, "profile", cliProfile, "profile the session is stored under")
	sessionLoginCmd.Flags().StringVar(&loginStaffID, "staff-id", "", "staff ID to sign in with")

	sessionCmd.AddCommand(sessionLoginCmd)
	sessionCmd.AddCommand(sessionWhoamiCmd)
	sessionCmd.AddCommand(sessionLogoutCmd)
}
