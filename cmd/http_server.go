package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/auth"
	"github.com/nizwa-nursing/cpd-portal/internal/core/events"
	"github.com/nizwa-nursing/cpd-portal/internal/dashboard"
	"github.com/nizwa-nursing/cpd-portal/internal/directory"
	"github.com/nizwa-nursing/cpd-portal/internal/event"
	"github.com/nizwa-nursing/cpd-portal/internal/notification"
	"github.com/nizwa-nursing/cpd-portal/internal/portal"
	"github.com/nizwa-nursing/cpd-portal/internal/registration"
	"github.com/nizwa-nursing/cpd-portal/internal/registration/sqlxstore"
	"github.com/nizwa-nursing/cpd-portal/internal/remoteapi"
	"github.com/nizwa-nursing/cpd-portal/internal/session/gormstore"
	"github.com/nizwa-nursing/cpd-portal/internal/storage"
	"github.com/nizwa-nursing/cpd-portal/internal/transport"
	"github.com/nizwa-nursing/cpd-portal/internal/transport/middleware"
	"github.com/nizwa-nursing/cpd-portal/internal/transport/rest"
	"github.com/nizwa-nursing/cpd-portal/internal/transport/web"
	"github.com/nizwa-nursing/cpd-portal/internal/user"
)

var serverPort int

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the portal web server`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func init() {
	httpServerCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "listen port, overrides http_server.port")
}

type Dependencies struct {
	Config     *internal.Config
	Storage    *storage.Handles
	Remote     *remoteapi.Client
	Registry   *portal.Registry
	Dispatcher *notification.Dispatcher
	Router     *chi.Mux
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up routes: %v\n", err)
		os.Exit(1)
	}

	port := deps.Config.Server.Port
	if serverPort > 0 {
		port = serverPort
	}
	addr := fmt.Sprintf(":%d", port)
	deps.Logger.Info("Starting HTTP server",
		"address", addr,
		"remote_api_configured", deps.Config.API.IsConfigured(),
		"storage", deps.Config.Storage.Driver,
		"email_notifications", deps.Dispatcher != nil)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.close()
			os.Exit(1)
		}
	}

	deps.close()
	deps.Logger.Info("Server stopped")
}

func (d *Dependencies) close() {
	if d.Dispatcher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_ = d.Dispatcher.Drain(ctx)
		cancel()
		d.Dispatcher.Shutdown()
	}
	if err := d.Storage.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	cfg, log, err := setup()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	handles, err := storage.Open(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	loc, err := cfg.UI.Location()
	if err != nil {
		_ = handles.Close()
		return nil, err
	}

	remote := remoteapi.NewClient(remoteapi.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, log)
	if !cfg.API.IsConfigured() {
		log.Warn("remote API base URL is not configured; data views will show setup instructions")
	}

	var (
		dispatcher *notification.Dispatcher
		notifier   events.Handler
	)
	if cfg.EmailEnabled() {
		dispatcher = notification.NewDispatcher(
			notification.NewResendSender(cfg.Email.APIKey, cfg.Email.From, log),
			notification.DispatcherConfig{
				MaxWorkers:   cfg.Email.Workers,
				JobQueueSize: cfg.Email.QueueSize,
				SendTimeout:  cfg.Email.SendTimeout,
			}, log)
		notifier = notification.NewRegistrationNotifier(dispatcher, cfg.Email.ReplyTo, cfg.App.Institution, log).Handle
	}

	registry := portal.NewRegistry(portal.Deps{
		KV:            gormstore.NewKVRepository(handles.Gorm),
		Remote:        remote,
		Ledger:        sqlxstore.NewLedgerRepository(handles.X),
		Notifier:      notifier,
		Location:      loc,
		Bounds:        staffIDBounds(cfg),
		CalendarView:  cfg.UI.CalendarView,
		APIConfigured: cfg.API.IsConfigured,
		Logger:        log,
	}, cfg.Server.MaxProfiles, cfg.Server.ProfileIdleTTL)

	return &Dependencies{
		Config:     cfg,
		Storage:    handles,
		Remote:     remote,
		Registry:   registry,
		Dispatcher: dispatcher,
		Router:     chi.NewRouter(),
		Logger:     log,
	}, nil
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	log := deps.Logger

	renderer, err := web.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	cookieKey, err := auth.DeriveKey(cfg.Security.SessionSecret, auth.PurposeProfileCookie)
	if err != nil {
		return err
	}
	csrfKey, err := auth.DeriveKey(cfg.Security.SessionSecret, auth.PurposeCSRF)
	if err != nil {
		return err
	}

	loc, _ := cfg.UI.Location()
	base := transport.NewBaseHandler(log, renderer, web.AppInfo{
		Name:        cfg.App.Name,
		Institution: cfg.App.Institution,
		Version:     cfg.App.Version,
	}, rest.NewChrome(cfg.Features))

	rbac := auth.NewRBACAuthorization(deps.Registry.Gate, func(w http.ResponseWriter, r *http.Request, denied auth.AccessDenied) {
		base.RenderDenied(w, r, denied.Section, string(denied.Role))
	}, log)

	handlers := rest.Handlers{
		Health:       rest.NewHealthHandler(deps.Storage.SQL, cfg.Storage.Driver, cfg.App.Version, cfg.API.IsConfigured, deps.Registry.Len),
		Auth:         auth.NewHandler(base, deps.Remote, deps.Registry.Store, deps.Registry.ForgetFor),
		Events:       event.NewHandler(base, deps.Registry, event.NewService(deps.Remote, loc, log)),
		Registration: registration.NewHandler(base, deps.Registry, staffIDBounds(cfg)),
		Dashboard:    dashboard.NewHandler(base, deps.Registry),
		Directory:    directory.NewHandler(base, deps.Registry, directory.NewService(deps.Remote, loc, log)),
		User:         user.NewHandler(base, user.NewService(deps.Remote, log), deps.Registry.Store),
	}

	security := rest.Security{
		Profiles:       middleware.NewProfileCookie(auth.NewProfileTokens(cookieKey, cfg.Security.ProfileCookieTTL), cfg.Server.SecureCookies, log),
		CSRFKey:        csrfKey,
		SecureCookies:  cfg.Server.SecureCookies,
		TrustedOrigins: cfg.Server.TrustedOrigins,
	}

	rest.RegisterAllRoutes(deps.Router, cfg.Features, security, rbac, handlers, log)
	return nil
}

func staffIDBounds(cfg *internal.Config) registration.Bounds {
	return registration.Bounds{
		MinLength: cfg.Validation.StaffIDMinLength,
		MaxLength: cfg.Validation.StaffIDMaxLength,
	}
}
