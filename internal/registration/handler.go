package registration

import (
	"context"
	"net/http"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/auth"
	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
	"github.com/nizwa-nursing/cpd-portal/internal/event"
	"github.com/nizwa-nursing/cpd-portal/internal/transport"
	"github.com/nizwa-nursing/cpd-portal/pkg/logger"
)

type Views interface {
	Registration(ctx context.Context) *Flow
	Catalog(ctx context.Context) *event.Catalog
}

type Handler struct {
	*transport.BaseHandler
	views  Views
	bounds Bounds
}

func NewHandler(base *transport.BaseHandler, views Views, bounds Bounds) *Handler {
	return &Handler{BaseHandler: base, views: views, bounds: bounds}
}

// Page is the data of the registration page.
type Page struct {
	Snapshot         Snapshot
	Events           []event.Event
	EventsError      string
	Bounds           Bounds
	DepartmentBanner string
	DepartmentStaff  []cpd.Staff
}

// PreviewFragment is the data of the staff preview partial.
type PreviewFragment struct {
	Preview       Preview
	SubmitEnabled bool
}

func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flow := h.views.Registration(ctx)
	if eventID := r.URL.Query().Get("event"); eventID != "" {
		flow.Select(eventID)
	}
	h.render(w, r, http.StatusOK, flow)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v, ok := auth.VisibilityFromContext(ctx)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := r.ParseForm(); err != nil {
		logger.FromOr(ctx, h.Logger).WarnContext(ctx, "invalid registration form", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid form submission")
		return
	}

	flow := h.views.Registration(ctx)
	out := flow.Submit(ctx, v, Form{
		EventID: r.PostFormValue("eventId"),
		StaffID: r.PostFormValue("staffId"),
	})

	status := outcomeStatus(out)
	if transport.WantsJSON(r) {
		h.WriteJSON(w, status, map[string]interface{}{
			"success": out.Succeeded(),
			"state":   out.State,
			"message": out.Message,
		})
		return
	}
	h.render(w, r, status, flow)
}

// Preview answers the staff-ID blur lookup with the preview partial.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v, ok := auth.VisibilityFromContext(ctx)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	flow := h.views.Registration(ctx)
	preview := flow.Preview(ctx, v, r.URL.Query().Get("staffId"))
	fragment := PreviewFragment{Preview: preview, SubmitEnabled: flow.SubmitEnabled()}

	if transport.WantsJSON(r) {
		h.WriteJSON(w, http.StatusOK, fragment)
		return
	}
	h.RenderFragment(w, r, http.StatusOK, "staff_preview.html", fragment)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, flow *Flow) {
	ctx := r.Context()
	catalog := h.views.Catalog(ctx)
	_ = catalog.EnsureLoaded(ctx)

	page := Page{
		Snapshot:    flow.Snapshot(),
		Events:      catalog.Events(),
		EventsError: catalog.Failure(),
		Bounds:      h.bounds,
	}
	if v, ok := auth.VisibilityFromContext(ctx); ok {
		page.DepartmentBanner = v.DepartmentBanner
		page.DepartmentStaff = flow.DepartmentStaff(ctx, v)
	}
	flow.ClearMessage()

	h.Render(w, r, status, "register.html", h.Page(r, "Register for CPD", "registration", page))
}

func outcomeStatus(out Outcome) int {
	switch {
	case out.Succeeded():
		return http.StatusOK
	case out.ErrorType == internal.ErrorTypeValidation:
		return http.StatusBadRequest
	case out.ErrorType == internal.ErrorTypeForbidden:
		return http.StatusForbidden
	case out.ErrorType == internal.ErrorTypeBusiness:
		return http.StatusUnprocessableEntity
	case out.ErrorType == internal.ErrorTypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusConflict
	}
}
