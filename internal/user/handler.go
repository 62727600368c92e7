package user

import (
	"net/http"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/auth"
	"github.com/nizwa-nursing/cpd-portal/internal/transport"
	"github.com/nizwa-nursing/cpd-portal/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
	stores  auth.StoreResolver
}

func NewHandler(base *transport.BaseHandler, svc *Service, stores auth.StoreResolver) *Handler {
	return &Handler{BaseHandler: base, Service: svc, stores: stores}
}

// GetCurrentUser handles GET /api/v1/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	v, ok := auth.VisibilityFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	caps := v.Permissions.Capabilities()
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = c.String()
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"profile":     FromSession(v.User),
		"permissions": names,
	})
}

func (h *Handler) ProfilePage(w http.ResponseWriter, r *http.Request) {
	v, ok := auth.VisibilityFromContext(r.Context())
	if !ok {
		h.SeeOther(w, r, auth.LoginPath)
		return
	}
	h.Render(w, r, http.StatusOK, "profile.html", h.Page(r, "My Profile", "profile", ProfilePage{Profile: FromSession(v.User)}))
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v, ok := auth.VisibilityFromContext(ctx)
	if !ok {
		h.SeeOther(w, r, auth.LoginPath)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.Render(w, r, http.StatusBadRequest, "profile.html", h.Page(r, "My Profile", "profile", ProfilePage{Profile: FromSession(v.User), Error: "Invalid form submission"}))
		return
	}

	update := UpdateFromForm(r.PostForm)
	saved, message, err := h.Service.UpdateProfile(ctx, h.stores(ctx), update)
	if err != nil {
		draft := FromSession(v.User)
		draft.Name, draft.Designation, draft.Email, draft.Phone = update.Name, update.Designation, update.Email, update.Phone
		page := ProfilePage{Profile: draft, Error: "Failed to update profile. Please try again."}

		status := http.StatusInternalServerError
		if appErr, ok := internal.IsAppError(err); ok {
			status = appErr.StatusCode
			switch appErr.Type {
			case internal.ErrorTypeValidation:
				page.Errors = transport.FieldErrors(appErr)
				page.Error = appErr.UserMessage()
			case internal.ErrorTypeBusiness:
				status = http.StatusUnprocessableEntity
				page.Error = appErr.Message
			}
		}
		logger.FromOr(ctx, h.Logger).WarnContext(ctx, "profile update rejected", "staff_id", v.User.StaffID, "error", err)
		h.Render(w, r, status, "profile.html", h.Page(r, "My Profile", "profile", page))
		return
	}

	h.Render(w, r, http.StatusOK, "profile.html", h.Page(r, "My Profile", "profile", ProfilePage{Profile: FromSession(saved), Saved: message}))
}
