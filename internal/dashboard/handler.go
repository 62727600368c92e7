package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/transport"
)

type Views interface {
	Dashboard(ctx context.Context) *View
}

type Handler struct {
	*transport.BaseHandler
	views Views
}

func NewHandler(base *transport.BaseHandler, views Views) *Handler {
	return &Handler{BaseHandler: base, views: views}
}

// Show loads the dashboard for the ?year= selection; an empty year asks the
// backend for its default scope.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view := h.views.Dashboard(ctx)

	err := view.Load(ctx, strings.TrimSpace(r.URL.Query().Get("year")))
	snapshot := view.Snapshot()

	if transport.WantsJSON(r) {
		status := http.StatusOK
		if err != nil && !errors.Is(err, ErrStaleResponse) {
			status = http.StatusBadGateway
			if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeConfiguration {
				status = appErr.StatusCode
			}
		}
		h.WriteJSON(w, status, snapshot)
		return
	}

	h.Render(w, r, http.StatusOK, "dashboard.html", h.Page(r, "CPD Dashboard", "dashboard", snapshot))
}
