package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/auth"
	"github.com/nizwa-nursing/cpd-portal/pkg/logger"
)

const ProfileCookieName = "cpd_profile"

// ProfileCookie binds every request to a browser profile. A missing, expired
// or tampered cookie starts a new profile.
type ProfileCookie struct {
	tokens *auth.ProfileTokens
	secure bool
	logger *slog.Logger
}

func NewProfileCookie(tokens *auth.ProfileTokens, secure bool, logger *slog.Logger) *ProfileCookie {
	return &ProfileCookie{tokens: tokens, secure: secure, logger: logger}
}

func (p *ProfileCookie) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		profileID := ""

		if c, err := r.Cookie(ProfileCookieName); err == nil {
			id, verr := p.tokens.Verify(c.Value)
			switch {
			case verr == nil:
				profileID = id
			case errors.Is(verr, auth.ErrTokenExpired):
				p.logger.DebugContext(ctx, "profile cookie expired")
			default:
				p.logger.WarnContext(ctx, "rejected profile cookie", "error", verr, "remote_addr", r.RemoteAddr)
			}
		}

		if profileID == "" {
			profileID = auth.NewProfileID()
			token, err := p.tokens.Issue(profileID)
			if err != nil {
				p.logger.ErrorContext(ctx, "failed to issue profile cookie", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     ProfileCookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(p.tokens.TTL().Seconds()),
				HttpOnly: true,
				Secure:   p.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx = internal.ContextWithProfileID(ctx, profileID)
		ctx = logger.With(ctx, "profile_id", profileID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
