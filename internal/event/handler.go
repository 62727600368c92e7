package event

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/auth"
	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
	"github.com/nizwa-nursing/cpd-portal/internal/core/events"
	"github.com/nizwa-nursing/cpd-portal/internal/transport"
	"github.com/nizwa-nursing/cpd-portal/pkg/logger"
)

// Views resolves the per-profile state a request works on.
type Views interface {
	Catalog(ctx context.Context) *Catalog
	Calendar(ctx context.Context) *Calendar
	Bus(ctx context.Context) *events.EventBus
}

type Handler struct {
	*transport.BaseHandler
	views   Views
	service *Service
}

func NewHandler(base *transport.BaseHandler, views Views, service *Service) *Handler {
	return &Handler{BaseHandler: base, views: views, service: service}
}

var statuses = []string{StatusApproved, StatusPending}

// ListEvents fetches the catalog on activation and filters the cached set
// when the request carries filter controls.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	catalog := h.views.Catalog(ctx)

	filter, filtering := FilterFromQuery(r.URL.Query())
	if filtering {
		_ = catalog.EnsureLoaded(ctx)
	} else {
		_ = catalog.Load(ctx)
	}
	view := catalog.View(filter)

	if transport.WantsJSON(r) {
		status := http.StatusOK
		if view.Error != "" {
			status = http.StatusBadGateway
		}
		h.WriteJSON(w, status, view)
		return
	}

	v, _ := auth.VisibilityFromContext(ctx)
	h.Render(w, r, http.StatusOK, "events.html", h.Page(r, "Upcoming CPD Events", "events", ListPage{
		View:        view,
		Statuses:    statuses,
		Filtering:   filtering,
		CanRegister: v.Can(auth.Register),
	}))
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	catalog := h.views.Catalog(ctx)
	_ = catalog.EnsureLoaded(ctx)

	id := chi.URLParam(r, "id")
	e, ok := catalog.Find(id)
	if !ok {
		logger.FromOr(ctx, h.Logger).InfoContext(ctx, "event not in catalog", "event_id", id)
		h.RenderError(w, r, internal.NewNotFoundError("Event not found", internal.ErrCodeEventNotFound))
		return
	}

	v, _ := auth.VisibilityFromContext(ctx)
	h.Render(w, r, http.StatusOK, "event_detail.html", h.Page(r, e.Name, "events", DetailPage{
		Event:       e,
		CanRegister: v.Can(auth.Register),
	}))
}

func (h *Handler) CalendarPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cal := h.views.Calendar(ctx)
	entries, err := cal.Init(ctx)
	if err != nil {
		logger.FromOr(ctx, h.Logger).ErrorContext(ctx, "error initializing calendar", "error", err)
		entries = []CalendarEntry{}
	}
	h.Render(w, r, http.StatusOK, "calendar.html", h.Page(r, "CPD Calendar", "calendar", CalendarPage{
		InitialView: cal.InitialView(),
		Entries:     entries,
	}))
}

func (h *Handler) CalendarEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.views.Calendar(ctx).Init(ctx)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) NewEventForm(w http.ResponseWriter, r *http.Request) {
	h.Render(w, r, http.StatusOK, "admin_event_new.html", h.Page(r, "Create Event", "events", CreatePage{}))
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v, ok := auth.VisibilityFromContext(ctx)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.Render(w, r, http.StatusBadRequest, "admin_event_new.html", h.Page(r, "Create Event", "events", CreatePage{Error: "Invalid form submission"}))
		return
	}

	draft := DraftFromForm(r.PostForm)
	eventID, err := h.service.CreateEvent(ctx, draft, v.User, h.views.Bus(ctx))
	if err != nil {
		status, page := createFailure(draft, err)
		h.Render(w, r, status, "admin_event_new.html", h.Page(r, "Create Event", "events", page))
		return
	}

	created := draft.EventName
	if eventID != "" {
		created = draft.EventName + " (" + eventID + ")"
	}
	h.Render(w, r, http.StatusOK, "admin_event_new.html", h.Page(r, "Create Event", "events", CreatePage{Created: created}))
}

func createFailure(draft cpd.EventDraft, err error) (int, CreatePage) {
	page := CreatePage{Draft: draft}
	appErr, ok := internal.IsAppError(err)
	if !ok {
		page.Error = "Failed to create event. Please try again."
		return http.StatusInternalServerError, page
	}
	switch appErr.Type {
	case internal.ErrorTypeValidation:
		page.Errors = transport.FieldErrors(appErr)
		page.Error = appErr.UserMessage()
		return http.StatusBadRequest, page
	case internal.ErrorTypeBusiness:
		page.Error = appErr.Message
		return http.StatusUnprocessableEntity, page
	default:
		page.Error = "Failed to create event. Please try again."
		return appErr.StatusCode, page
	}
}
