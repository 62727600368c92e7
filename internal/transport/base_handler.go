package transport

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/transport/web"
	"github.com/nizwa-nursing/cpd-portal/pkg/logger"
)

// ChromeFunc builds the signed-in header and navigation for a request.
type ChromeFunc func(r *http.Request) *web.Chrome

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger   *slog.Logger
	Renderer *web.Renderer
	App      web.AppInfo
	Chrome   ChromeFunc
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger, renderer *web.Renderer, app web.AppInfo, chrome ChromeFunc) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	if chrome == nil {
		chrome = func(*http.Request) *web.Chrome { return nil }
	}
	return &BaseHandler{Logger: lg, Renderer: renderer, App: app, Chrome: chrome}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Error("http error", "status", status, "message", message)
	h.WriteJSON(w, status, map[string]interface{}{
		"code":    status,
		"message": message,
	})
}

// WriteAppError writes an AppError as JSON with its own status code.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		appErr = internal.NewInternalError("internal server error", err)
	}
	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// Page assembles the common page fields for a request.
func (h *BaseHandler) Page(r *http.Request, title, active string, data any) web.Page {
	return web.Page{
		Title:     title,
		Active:    active,
		App:       h.App,
		Chrome:    h.Chrome(r),
		CSRFField: csrf.TemplateField(r),
		Data:      data,
	}
}

// Render writes a full HTML page. The template is executed into a buffer so
// a failing template never sends half a page.
func (h *BaseHandler) Render(w http.ResponseWriter, r *http.Request, status int, name string, page web.Page) {
	var buf bytes.Buffer
	if err := h.Renderer.Render(&buf, name, page); err != nil {
		logger.FromOr(r.Context(), h.Logger).ErrorContext(r.Context(), "failed to render page", "page", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// RenderFragment writes a partial without the layout.
func (h *BaseHandler) RenderFragment(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.Renderer.RenderFragment(&buf, name, data); err != nil {
		logger.FromOr(r.Context(), h.Logger).ErrorContext(r.Context(), "failed to render fragment", "fragment", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// RenderDenied writes the access-denied panel for a section.
func (h *BaseHandler) RenderDenied(w http.ResponseWriter, r *http.Request, section, role string) {
	page := h.Page(r, "Access Denied", "", web.Denied{Section: section, Role: role})
	h.Render(w, r, http.StatusForbidden, "denied.html", page)
}

// RenderError writes the error page for an AppError, using its status code
// and user-facing message.
func (h *BaseHandler) RenderError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		appErr = internal.NewInternalError("Something went wrong. Please try again.", err)
	}
	page := h.Page(r, "Error", "", web.ErrorPage{Code: string(appErr.Code), Message: appErr.UserMessage()})
	h.Render(w, r, appErr.StatusCode, "error.html", page)
}

// FieldErrors maps form field names to their validation messages.
func FieldErrors(appErr *internal.AppError) map[string]string {
	out := make(map[string]string)
	if appErr == nil {
		return out
	}
	if details, ok := appErr.Details.(internal.ValidationErrors); ok {
		for _, fe := range details.Errors {
			if _, seen := out[fe.Field]; !seen {
				out[fe.Field] = fe.Message
			}
		}
	}
	return out
}

// SeeOther redirects after a successful form post.
func (h *BaseHandler) SeeOther(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// WantsJSON reports whether the client asked for JSON.
func WantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
