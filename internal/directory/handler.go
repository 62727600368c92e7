package directory

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/auth"
	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
	"github.com/nizwa-nursing/cpd-portal/internal/core/events"
	"github.com/nizwa-nursing/cpd-portal/internal/transport"
)

type Views interface {
	Leaders(ctx context.Context) *Leaders
	Announcements(ctx context.Context) *Announcements
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

func (h *Handler) ListLeaders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	leaders := h.views.Leaders(ctx)
	_ = leaders.Load(ctx)

	page := leaders.Page()
	if transport.WantsJSON(r) {
		h.WriteJSON(w, http.StatusOK, page)
		return
	}
	h.Render(w, r, http.StatusOK, "leaders.html", h.Page(r, "Board of Leaders", "leaders", page))
}

func (h *Handler) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	announcements := h.views.Announcements(ctx)
	_ = announcements.Load(ctx)

	page := announcements.Page()
	if transport.WantsJSON(r) {
		h.WriteJSON(w, http.StatusOK, page)
		return
	}
	h.Render(w, r, http.StatusOK, "announcements.html", h.Page(r, "Announcements", "announcements", page))
}

type CreatePage struct {
	Draft      cpd.AnnouncementDraft
	Priorities []string
	Errors     map[string]string
	Error      string
	Created    string
}

func DraftFromForm(form url.Values) cpd.AnnouncementDraft {
	priority := strings.TrimSpace(form.Get("priority"))
	if priority == "" {
		priority = PriorityNormal
	}
	return cpd.AnnouncementDraft{
		Title:      strings.TrimSpace(form.Get("title")),
		Message:    strings.TrimSpace(form.Get("message")),
		Priority:   priority,
		ExpiryDate: strings.TrimSpace(form.Get("expiryDate")),
	}
}

func (h *Handler) NewAnnouncementForm(w http.ResponseWriter, r *http.Request) {
	h.Render(w, r, http.StatusOK, "admin_announcement_new.html", h.Page(r, "Create Announcement", "announcements", CreatePage{
		Draft:      cpd.AnnouncementDraft{Priority: PriorityNormal},
		Priorities: Priorities,
	}))
}

func (h *Handler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v, ok := auth.VisibilityFromContext(ctx)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.Render(w, r, http.StatusBadRequest, "admin_announcement_new.html", h.Page(r, "Create Announcement", "announcements", CreatePage{
			Priorities: Priorities,
			Error:      "Invalid form submission",
		}))
		return
	}

	draft := DraftFromForm(r.PostForm)
	if err := h.service.CreateAnnouncement(ctx, draft, v.User, h.views.Bus(ctx)); err != nil {
		status, page := createFailure(draft, err)
		h.Render(w, r, status, "admin_announcement_new.html", h.Page(r, "Create Announcement", "announcements", page))
		return
	}

	h.Render(w, r, http.StatusOK, "admin_announcement_new.html", h.Page(r, "Create Announcement", "announcements", CreatePage{
		Draft:      cpd.AnnouncementDraft{Priority: PriorityNormal},
		Priorities: Priorities,
		Created:    draft.Title,
	}))
}

func createFailure(draft cpd.AnnouncementDraft, err error) (int, CreatePage) {
	page := CreatePage{Draft: draft, Priorities: Priorities}
	appErr, ok := internal.IsAppError(err)
	if !ok {
		page.Error = "Failed to create announcement. Please try again."
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
		page.Error = "Failed to create announcement. Please try again."
		return appErr.StatusCode, page
	}
}
