package portal

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/auth"
	"github.com/nizwa-nursing/cpd-portal/internal/core/events"
	"github.com/nizwa-nursing/cpd-portal/internal/dashboard"
	"github.com/nizwa-nursing/cpd-portal/internal/directory"
	"github.com/nizwa-nursing/cpd-portal/internal/event"
	"github.com/nizwa-nursing/cpd-portal/internal/registration"
	"github.com/nizwa-nursing/cpd-portal/internal/session"
)

// Registry maps browser profiles to their workspaces. Idle workspaces are
// evicted after the TTL and the least recently used one goes when the
// registry is full; an evicted profile starts again from fresh views, its
// session record stays in storage.
type Registry struct {
	deps  Deps
	mu    sync.Mutex
	cache *expirable.LRU[string, *Workspace]
}

func NewRegistry(deps Deps, size int, ttl time.Duration) *Registry {
	r := &Registry{deps: deps}
	r.cache = expirable.NewLRU[string, *Workspace](size, func(profileID string, _ *Workspace) {
		deps.Logger.Debug("workspace evicted", "profile_id", profileID)
	}, ttl)
	return r
}

// Get returns the profile's workspace, creating it on first use. Every use
// re-adds the entry so the TTL counts idle time.
func (r *Registry) Get(profileID string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.cache.Get(profileID)
	if !ok {
		w = NewWorkspace(profileID, r.deps)
	}
	r.cache.Add(profileID, w)
	return w
}

// Forget drops the profile's views, as on sign-out.
func (r *Registry) Forget(profileID string) {
	r.cache.Remove(profileID)
}

func (r *Registry) Len() int {
	return r.cache.Len()
}

// For returns the workspace of the request's profile. A request without a
// profile gets a throwaway workspace that is never cached.
func (r *Registry) For(ctx context.Context) *Workspace {
	profileID := internal.ProfileIDFromContext(ctx)
	if profileID == "" {
		return NewWorkspace("", r.deps)
	}
	return r.Get(profileID)
}

func (r *Registry) ForgetFor(ctx context.Context) {
	if profileID := internal.ProfileIDFromContext(ctx); profileID != "" {
		r.Forget(profileID)
	}
}

func (r *Registry) Store(ctx context.Context) *session.Store {
	return r.For(ctx).Session
}

func (r *Registry) Gate(ctx context.Context) *auth.Gate {
	return r.For(ctx).Gate
}

func (r *Registry) Bus(ctx context.Context) *events.EventBus {
	return r.For(ctx).Bus
}

func (r *Registry) Catalog(ctx context.Context) *event.Catalog {
	return r.For(ctx).Catalog
}

func (r *Registry) Calendar(ctx context.Context) *event.Calendar {
	return r.For(ctx).Calendar
}

func (r *Registry) Registration(ctx context.Context) *registration.Flow {
	return r.For(ctx).Registration
}

func (r *Registry) Dashboard(ctx context.Context) *dashboard.View {
	return r.For(ctx).Dashboard
}

func (r *Registry) Leaders(ctx context.Context) *directory.Leaders {
	return r.For(ctx).Leaders
}

func (r *Registry) Announcements(ctx context.Context) *directory.Announcements {
	return r.For(ctx).Announcements
}

var (
	_ event.Views        = (*Registry)(nil)
	_ registration.Views = (*Registry)(nil)
	_ dashboard.Views    = (*Registry)(nil)
	_ directory.Views    = (*Registry)(nil)
)
