package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/session"
	"github.com/nizwa-nursing/cpd-portal/internal/transport"
	"github.com/nizwa-nursing/cpd-portal/pkg/logger"
)

type Authenticator interface {
	Login(ctx context.Context, staffID, password string) (*session.User, error)
}

// StoreResolver returns the session store of the request's browser profile.
type StoreResolver func(ctx context.Context) *session.Store

type Handler struct {
	*transport.BaseHandler
	authn    Authenticator
	stores   StoreResolver
	onLogout func(ctx context.Context)
}

func NewHandler(base *transport.BaseHandler, authn Authenticator, stores StoreResolver, onLogout func(ctx context.Context)) *Handler {
	if onLogout == nil {
		onLogout = func(context.Context) {}
	}
	return &Handler{
		BaseHandler: base,
		authn:       authn,
		stores:      stores,
		onLogout:    onLogout,
	}
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.stores(r.Context()).Load(r.Context()); ok {
		h.SeeOther(w, r, "/")
		return
	}
	h.Render(w, r, http.StatusOK, "login.html", h.Page(r, "Sign in", "login", LoginView{}))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromOr(ctx, h.Logger)

	if err := r.ParseForm(); err != nil {
		h.Render(w, r, http.StatusBadRequest, "login.html", h.Page(r, "Sign in", "login", LoginView{Error: "Invalid form submission"}))
		return
	}

	dto := LoginDTO{
		StaffID:  strings.TrimSpace(r.PostFormValue("staffId")),
		Password: r.PostFormValue("password"),
	}
	if appErr := dto.Validate(); appErr != nil {
		h.Render(w, r, http.StatusBadRequest, "login.html", h.Page(r, "Sign in", "login", LoginView{StaffID: dto.StaffID, Error: appErr.UserMessage()}))
		return
	}

	user, err := h.authn.Login(ctx, dto.StaffID, dto.Password)
	if err != nil {
		message := "Unable to sign in. Please try again."
		status := http.StatusBadGateway
		if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeBusiness {
			message = appErr.Message
			status = http.StatusUnauthorized
		}
		log.WarnContext(ctx, "login failed", "staff_id", dto.StaffID, "error", err)
		h.Render(w, r, status, "login.html", h.Page(r, "Sign in", "login", LoginView{StaffID: dto.StaffID, Error: message}))
		return
	}

	if err := h.stores(ctx).Save(ctx, user); err != nil {
		log.ErrorContext(ctx, "failed to persist session", "staff_id", user.StaffID, "error", err)
		h.Render(w, r, http.StatusInternalServerError, "login.html", h.Page(r, "Sign in", "login", LoginView{StaffID: dto.StaffID, Error: "Unable to sign in. Please try again."}))
		return
	}

	log.InfoContext(ctx, "user signed in", "staff_id", user.StaffID, "role", user.Role)
	h.SeeOther(w, r, "/")
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.stores(ctx).Clear(ctx); err != nil {
		logger.FromOr(ctx, h.Logger).ErrorContext(ctx, "failed to clear session", "error", err)
	}
	h.onLogout(ctx)
	h.SeeOther(w, r, LoginPath)
}
