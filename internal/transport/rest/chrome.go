package rest

import (
	"net/http"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/auth"
	"github.com/nizwa-nursing/cpd-portal/internal/transport"
	"github.com/nizwa-nursing/cpd-portal/internal/transport/web"
)

// NewChrome builds the header and navigation from the request's visibility.
// A section whose feature is switched off is hidden regardless of role.
func NewChrome(features internal.FeatureConfig) transport.ChromeFunc {
	return func(r *http.Request) *web.Chrome {
		v, ok := auth.VisibilityFromContext(r.Context())
		if !ok || v == nil || v.User == nil {
			return nil
		}

		nav := make(map[string]bool, len(v.Nav))
		for section, shown := range v.Nav {
			nav[string(section)] = shown && featureOn(features, section)
		}

		return &web.Chrome{
			Name:               v.User.Name,
			Designation:        v.User.Designation,
			Role:               string(v.User.Role),
			RoleBadge:          v.RoleBadge,
			Department:         v.User.Department,
			Welcome:            v.Welcome,
			DepartmentBanner:   v.DepartmentBanner,
			RegistrationNotice: v.RegistrationNotice,
			Nav:                nav,
			ShowCreateActions:  v.ShowCreateActions,
		}
	}
}

func featureOn(features internal.FeatureConfig, section auth.Section) bool {
	switch section {
	case auth.SectionDashboard:
		return features.DashboardAnalytics
	case auth.SectionLeaders:
		return features.BoardOfLeaders
	case auth.SectionRegistration:
		return features.EventRegistration
	default:
		return true
	}
}
