package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/auth"
	"github.com/nizwa-nursing/cpd-portal/internal/transport/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ProfileCookie", func() {
	var (
		tokens  *auth.ProfileTokens
		cookies *middleware.ProfileCookie
		seen    string
		handler http.Handler
	)

	BeforeEach(func() {
		tokens = auth.NewProfileTokens([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
		cookies = middleware.NewProfileCookie(tokens, false, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
		seen = ""
		handler = cookies.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = internal.ProfileIDFromContext(r.Context())
		}))
	})

	It("starts a profile for a first visit", func() {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(seen).NotTo(BeEmpty())
		issued := rec.Result().Cookies()
		Expect(issued).To(HaveLen(1))
		Expect(issued[0].Name).To(Equal(middleware.ProfileCookieName))
		Expect(issued[0].HttpOnly).To(BeTrue())

		id, err := tokens.Verify(issued[0].Value)
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(seen))
	})

	It("keeps the profile of a valid cookie", func() {
		token, err := tokens.Issue("profile-1")
		Expect(err).NotTo(HaveOccurred())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: middleware.ProfileCookieName, Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		Expect(seen).To(Equal("profile-1"))
		Expect(rec.Result().Cookies()).To(BeEmpty())
	})

	It("replaces a cookie signed with another key", func() {
		other := auth.NewProfileTokens([]byte("ffffffffffffffffffffffffffffffff"), time.Hour)
		token, err := other.Issue("intruder")
		Expect(err).NotTo(HaveOccurred())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: middleware.ProfileCookieName, Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		Expect(seen).NotTo(Equal("intruder"))
		Expect(rec.Result().Cookies()).To(HaveLen(1))
	})
})

var _ = Describe("CSRF", func() {
	var handler http.Handler

	BeforeEach(func() {
		key := bytes.Repeat([]byte("k"), 32)
		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		handler = middleware.CSRF(key, false, nil, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
	})

	It("lets safe methods through", func() {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/register", nil))
		Expect(rec.Code).To(Equal(http.StatusNoContent))
	})

	It("rejects a form post without a token", func() {
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader("eventId=E1"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})
})

var _ = Describe("LoggingMiddleware", func() {
	It("masks passwords in form bodies and keeps the body readable", func() {
		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

		var received string
		handler := middleware.LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.ParseForm()).To(Succeed())
			received = r.PostForm.Get("password")
			w.WriteHeader(http.StatusUnauthorized)
		}))

		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("staffId=N1&password=hunter2"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		Expect(received).To(Equal("hunter2"))
		Expect(logs.String()).NotTo(ContainSubstring("hunter2"))
		Expect(logs.String()).To(ContainSubstring("status_code=401"))
		Expect(logs.String()).To(ContainSubstring("level=WARN"))
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("answers 500 without leaking the panic", func() {
		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		handler := middleware.RecoveryMiddleware(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("secret detail")
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).NotTo(ContainSubstring("secret detail"))
	})
})

var _ = Describe("RequestID", func() {
	It("echoes an incoming trace ID", func() {
		handler := middleware.RequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.TraceHeader, "trace-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		Expect(rec.Header().Get(middleware.TraceHeader)).To(Equal("trace-1"))
	})

	It("mints a trace ID when none is sent", func() {
		handler := middleware.RequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Header().Get(middleware.TraceHeader)).To(HaveLen(36))
	})
})
