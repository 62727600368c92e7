package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/auth"
	"github.com/nizwa-nursing/cpd-portal/internal/dashboard"
	"github.com/nizwa-nursing/cpd-portal/internal/directory"
	"github.com/nizwa-nursing/cpd-portal/internal/event"
	"github.com/nizwa-nursing/cpd-portal/internal/registration"
	"github.com/nizwa-nursing/cpd-portal/internal/transport/middleware"
	"github.com/nizwa-nursing/cpd-portal/internal/transport/swagger"
	"github.com/nizwa-nursing/cpd-portal/internal/user"
)

type Handlers struct {
	Health       *HealthHandler
	Auth         *auth.Handler
	Events       *event.Handler
	Registration *registration.Handler
	Dashboard    *dashboard.Handler
	Directory    *directory.Handler
	User         *user.Handler
}

type Security struct {
	Profiles       *middleware.ProfileCookie
	CSRFKey        []byte
	SecureCookies  bool
	TrustedOrigins []string
}

func RegisterAllRoutes(router *chi.Mux, features internal.FeatureConfig, security Security, rbac *auth.RBACAuthorization, h Handlers, logger *slog.Logger) {
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.SecurityHeaders)

	router.Get("/openapi.yml", swagger.Spec)
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health.Check)
		r.Get("/ping", h.Health.Ping)

		r.Group(func(pr chi.Router) {
			pr.Use(security.Profiles.Middleware)
			pr.Use(rbac.RequireSession())
			pr.Get("/me", h.User.GetCurrentUser)
		})
	})

	// Everything below is bound to a browser profile and CSRF-protected.
	router.Group(func(r chi.Router) {
		r.Use(security.Profiles.Middleware)
		r.Use(middleware.CSRF(security.CSRFKey, security.SecureCookies, security.TrustedOrigins, logger))

		r.Get("/login", h.Auth.LoginPage)
		r.Post("/login", h.Auth.Login)
		r.Post("/logout", h.Auth.Logout)

		r.Group(func(pr chi.Router) {
			pr.Use(rbac.RequireSession())

			pr.Get("/", h.Events.ListEvents)
			pr.Get("/events/{id}", h.Events.GetEvent)
			pr.Get("/announcements", h.Directory.ListAnnouncements)
			pr.Get("/profile", h.User.ProfilePage)
			pr.Post("/profile", h.User.UpdateProfile)

			pr.Group(func(cr chi.Router) {
				cr.Use(rbac.RequireCalendar())
				cr.Get("/calendar", h.Events.CalendarPage)
				cr.Get("/api/calendar/events", h.Events.CalendarEvents)
			})

			if features.EventRegistration {
				pr.Group(func(rr chi.Router) {
					rr.Use(rbac.RequireRegister())
					rr.Get("/register", h.Registration.RegisterPage)
					rr.Post("/register", h.Registration.Submit)
					rr.Get("/register/preview", h.Registration.Preview)
				})
			}

			if features.DashboardAnalytics {
				pr.Group(func(dr chi.Router) {
					dr.Use(rbac.RequireDashboard())
					dr.Get("/dashboard", h.Dashboard.Show)
				})
			}

			if features.BoardOfLeaders {
				pr.Group(func(lr chi.Router) {
					lr.Use(rbac.RequireLeaders())
					lr.Get("/leaders", h.Directory.ListLeaders)
				})
			}

			pr.Route("/admin", func(ar chi.Router) {
				ar.Use(rbac.RequireAdmin())
				ar.Get("/events/new", h.Events.NewEventForm)
				ar.Post("/events/new", h.Events.CreateEvent)
				ar.Get("/announcements/new", h.Directory.NewAnnouncementForm)
				ar.Post("/announcements/new", h.Directory.CreateAnnouncement)
			})
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})
}
