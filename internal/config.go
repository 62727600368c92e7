package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Placeholder fragments shipped in the sample configuration. A base URL that
// still contains one of them has never been pointed at a deployed backend.
const (
	PlaceholderWebAppURL    = "YOUR_GOOGLE_APPS_SCRIPT_WEB_APP_URL_HERE"
	PlaceholderDeploymentID = "YOUR_DEPLOYMENT_ID"
)

type Config struct {
	Env        string           `mapstructure:"env" validate:"omitempty,oneof=development production test"`
	App        AppConfig        `mapstructure:"app"`
	API        APIConfig        `mapstructure:"api"`
	Features   FeatureConfig    `mapstructure:"features"`
	UI         UIConfig         `mapstructure:"ui"`
	Validation ValidationConfig `mapstructure:"validation"`
	Server     ServerConfig     `mapstructure:"http_server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Security   SecurityConfig   `mapstructure:"security"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Email      EmailConfig      `mapstructure:"email"`
}

type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Institution string `mapstructure:"institution" validate:"required"`
	Version     string `mapstructure:"version"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"min=0"`
}

type FeatureConfig struct {
	EventRegistration  bool `mapstructure:"event_registration"`
	DashboardAnalytics bool `mapstructure:"dashboard_analytics"`
	BoardOfLeaders     bool `mapstructure:"board_of_leaders"`
	EmailNotifications bool `mapstructure:"email_notifications"`
}

type UIConfig struct {
	EventsPerPage     int    `mapstructure:"events_per_page" validate:"min=1,max=500"`
	DefaultDepartment string `mapstructure:"default_department"`
	CalendarView      string `mapstructure:"calendar_view" validate:"oneof=dayGridMonth timeGridWeek listMonth"`
	DateLocation      string `mapstructure:"date_location"`
}

type ValidationConfig struct {
	StaffIDMinLength int `mapstructure:"staff_id_min_length" validate:"min=1"`
	StaffIDMaxLength int `mapstructure:"staff_id_max_length" validate:"min=1"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	SecureCookies     bool          `mapstructure:"secure_cookies"`
	TrustedOrigins    []string      `mapstructure:"trusted_origins"`
	MaxProfiles       int           `mapstructure:"max_profiles" validate:"min=1"`
	ProfileIdleTTL    time.Duration `mapstructure:"profile_idle_ttl" validate:"min=1m"`
}

type StorageConfig struct {
	Driver      string `mapstructure:"driver" validate:"required,oneof=sqlite postgres"`
	Source      string `mapstructure:"source" validate:"required"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type SecurityConfig struct {
	SessionSecret    string        `mapstructure:"session_secret" validate:"required,min=32"`
	ProfileCookieTTL time.Duration `mapstructure:"profile_cookie_ttl" validate:"min=1h"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json text"`
}

type EmailConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	From        string        `mapstructure:"from"`
	ReplyTo     string        `mapstructure:"reply_to" validate:"omitempty,email"`
	Workers     int           `mapstructure:"workers" validate:"min=1,max=32"`
	QueueSize   int           `mapstructure:"queue_size" validate:"min=1"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

// Defaults mirrors the shipped config.yml so the binary runs with no file at all.
func Defaults() map[string]any {
	return map[string]any{
		"env":                             "development",
		"app.name":                        "Nursing CPD Portal",
		"app.institution":                 "Nizwa Hospital",
		"app.version":                     "1.0.0",
		"api.base_url":                    "",
		"api.timeout":                     0,
		"features.event_registration":     true,
		"features.dashboard_analytics":    true,
		"features.board_of_leaders":       true,
		"features.email_notifications":    false,
		"ui.events_per_page":              50,
		"ui.default_department":           "",
		"ui.calendar_view":                "dayGridMonth",
		"ui.date_location":                "Local",
		"validation.staff_id_min_length":  2,
		"validation.staff_id_max_length":  10,
		"http_server.port":                8080,
		"http_server.read_header_timeout": "5s",
		"http_server.read_timeout":        "30s",
		"http_server.idle_timeout":        "120s",
		"http_server.write_timeout":       "60s",
		"http_server.secure_cookies":      false,
		"http_server.max_profiles":        1024,
		"http_server.profile_idle_ttl":    "2h",
		"storage.driver":                  "sqlite",
		"storage.source":                  "cpd_portal.db",
		"storage.auto_migrate":            true,
		"security.profile_cookie_ttl":     "720h",
		"logging.level":                   "",
		"logging.format":                  "",
		"email.workers":                   2,
		"email.queue_size":                100,
		"email.send_timeout":              "15s",
	}
}

// ----------------- VALIDATION -----------------

var structValidator = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	var errs []string

	if err := structValidator.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if err := c.API.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("api config: %v", err))
	}

	if err := c.Validation.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("validation config: %v", err))
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.UI.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("ui config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// Validate only rejects a URL that cannot be parsed. An empty or placeholder
// URL is allowed so the portal can start and explain the problem on the
// dashboard instead of refusing to boot.
func (c *APIConfig) Validate() error {
	if c.BaseURL == "" || !c.IsConfigured() {
		return nil
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be http or https, got %q", u.Scheme)
	}
	return nil
}

// IsConfigured reports whether the base URL points at a real deployment.
func (c APIConfig) IsConfigured() bool {
	if strings.TrimSpace(c.BaseURL) == "" {
		return false
	}
	return !strings.Contains(c.BaseURL, PlaceholderWebAppURL) &&
		!strings.Contains(c.BaseURL, PlaceholderDeploymentID)
}

func (c *ValidationConfig) Validate() error {
	if c.StaffIDMinLength > c.StaffIDMaxLength {
		return errors.New("staff_id_min_length cannot be greater than staff_id_max_length")
	}
	return nil
}

func (c *ServerConfig) Validate() error {
	for _, origin := range c.TrustedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" || strings.Contains(origin, "://") {
			return fmt.Errorf("trusted origin %q must be a bare host[:port]", origin)
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *UIConfig) Validate() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid date_location: %w", err)
	}
	return nil
}

// Location is the calendar-day zone used for "today" comparisons.
func (c UIConfig) Location() (*time.Location, error) {
	if c.DateLocation == "" || c.DateLocation == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.DateLocation)
}

func (c *StorageConfig) GetDSN() string {
	return c.Source
}

// SQLDriverName is the database/sql driver registered for the configured store.
func (c *StorageConfig) SQLDriverName() string {
	if c.Driver == "postgres" {
		return "pgx"
	}
	return "sqlite3"
}

// EmailEnabled is true when the feature toggle is on and a sender is configured.
func (c *Config) EmailEnabled() bool {
	return c.Features.EmailNotifications && c.Email.APIKey != "" && c.Email.From != ""
}
