package remoteapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/pkg/logger"
)

type Action string

const (
	ActionLogin                Action = "login"
	ActionGetUpcomingEvents    Action = "getUpcomingEvents"
	ActionRegisterStaff        Action = "registerStaff"
	ActionGetDashboardData     Action = "getDashboardData"
	ActionGetStaffDetails      Action = "getStaffDetails"
	ActionGetStaffByDepartment Action = "getStaffByDepartment"
	ActionGetBoardOfLeaders    Action = "getBoardOfLeaders"
	ActionGetAnnouncements     Action = "getAnnouncements"
	ActionUpdateProfile        Action = "updateProfile"
	ActionCreateEvent          Action = "createEvent"
	ActionCreateAnnouncement   Action = "createAnnouncement"
)

// DefaultFailureMessage is shown when the backend rejects a call without a reason.
const DefaultFailureMessage = "The request could not be completed"

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the action-dispatched spreadsheet API. Reads are GETs with
// an action query parameter, writes are form-encoded POSTs.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimSpace(config.BaseURL),
		timeout:    config.Timeout,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a read action. Empty parameter values are dropped.
func (c *Client) Get(ctx context.Context, action Action, params url.Values) (*Envelope, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil || c.baseURL == "" {
		return nil, c.fail(ctx, action, internal.NewExternalError("Remote API address is invalid", internal.ErrCodeRemoteUnavailable, err))
	}

	q := u.Query()
	q.Set("action", string(action))
	for key, values := range params {
		for _, v := range values {
			if v != "" {
				q.Add(key, v)
			}
		}
	}
	u.RawQuery = q.Encode()

	ctx, cancel := internal.WithOptionalTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, c.fail(ctx, action, internal.NewExternalError("Failed to build request", internal.ErrCodeRemoteUnavailable, err))
	}
	req.Header.Set("Accept", "application/json")

	return c.do(ctx, action, req)
}

// Post issues a write action with the fields form-encoded in the body.
func (c *Client) Post(ctx context.Context, action Action, fields url.Values) (*Envelope, error) {
	if c.baseURL == "" {
		return nil, c.fail(ctx, action, internal.NewExternalError("Remote API address is invalid", internal.ErrCodeRemoteUnavailable, nil))
	}

	form := url.Values{}
	form.Set("action", string(action))
	for key, values := range fields {
		for _, v := range values {
			form.Add(key, v)
		}
	}

	ctx, cancel := internal.WithOptionalTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, c.fail(ctx, action, internal.NewExternalError("Failed to build request", internal.ErrCodeRemoteUnavailable, err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	return c.do(ctx, action, req)
}

func (c *Client) do(ctx context.Context, action Action, req *http.Request) (*Envelope, error) {
	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(ctx, action, internal.NewExternalError("Unable to reach the CPD service", internal.ErrCodeRemoteUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, c.fail(ctx, action, internal.NewExternalError(
			fmt.Sprintf("HTTP error! status: %d", resp.StatusCode),
			internal.ErrCodeHTTPStatus, nil).
			WithDetails(map[string]int{"status": resp.StatusCode}))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(ctx, action, internal.NewExternalError("Failed to read response", internal.ErrCodeRemoteUnavailable, err))
	}

	env, err := parseEnvelope(body)
	if err != nil {
		return nil, c.fail(ctx, action, internal.NewExternalError("Unexpected response from the CPD service", internal.ErrCodeMalformedResponse, err))
	}

	logger.FromOr(ctx, c.logger).DebugContext(ctx, "remote action completed",
		"action", action,
		"success", env.Success,
		"duration_ms", time.Since(started).Milliseconds())

	if !env.Success {
		message := env.Message
		if message == "" {
			message = DefaultFailureMessage
		}
		return env, c.fail(ctx, action, internal.NewBusinessError(message))
	}

	return env, nil
}

func (c *Client) fail(ctx context.Context, action Action, appErr *internal.AppError) *internal.AppError {
	log := logger.FromOr(ctx, c.logger)
	if appErr.Type == internal.ErrorTypeBusiness {
		log.WarnContext(ctx, "remote action rejected", "action", action, "message", appErr.Message)
	} else {
		log.ErrorContext(ctx, "remote action failed", "action", action, "code", appErr.Code, "error", appErr)
	}
	return appErr
}
