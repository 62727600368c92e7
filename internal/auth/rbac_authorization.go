package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// GateResolver returns the gate of the request's browser profile.
type GateResolver func(ctx context.Context) *Gate

// DeniedRenderer writes the access-denied response for a section.
type DeniedRenderer func(w http.ResponseWriter, r *http.Request, denied AccessDenied)

type RBACAuthorization struct {
	resolve  GateResolver
	onDenied DeniedRenderer
	logger   *slog.Logger
}

func NewRBACAuthorization(resolve GateResolver, onDenied DeniedRenderer, logger *slog.Logger) *RBACAuthorization {
	if onDenied == nil {
		onDenied = func(w http.ResponseWriter, _ *http.Request, denied AccessDenied) {
			http.Error(w, "Access Denied: "+denied.Message, http.StatusForbidden)
		}
	}
	return &RBACAuthorization{
		resolve:  resolve,
		onDenied: onDenied,
		logger:   logger,
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

// RequireSession sends requests without a stored user to the login page and
// stores the visibility projection for everything downstream.
func (ra *RBACAuthorization) RequireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := ra.resolve(r.Context()).Initialize(r.Context())
			if decision.Redirect != "" {
				if wantsJSON(r) {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				http.Redirect(w, r, decision.Redirect, http.StatusSeeOther)
				return
			}
			ctx := ContextWithVisibility(r.Context(), decision.Visibility)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require allows the request through only when the user holds c. It must run
// after RequireSession.
func (ra *RBACAuthorization) Require(c Capability, section string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v, ok := VisibilityFromContext(r.Context())
			if !ok {
				ra.logger.WarnContext(r.Context(), "authorization check failed: no session in context")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !v.Can(c) {
				ra.logger.WarnContext(r.Context(), "access denied: missing capability",
					"staff_id", v.User.StaffID,
					"role", v.User.Role,
					"required_capability", c.String(),
					"permissions", v.Permissions.String())
				if wantsJSON(r) {
					http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
					return
				}
				ra.onDenied(w, r, NewAccessDenied(section, v.User.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireDashboard() func(http.Handler) http.Handler {
	return ra.Require(ViewDashboard, "the Dashboard")
}

func (ra *RBACAuthorization) RequireCalendar() func(http.Handler) http.Handler {
	return ra.Require(ViewCalendar, "the Calendar")
}

func (ra *RBACAuthorization) RequireLeaders() func(http.Handler) http.Handler {
	return ra.Require(ViewLeaders, "the Board of Leaders")
}

func (ra *RBACAuthorization) RequireRegister() func(http.Handler) http.Handler {
	return ra.Require(Register, "Event Registration")
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.Require(ManageContent, "content management")
}
