package directory

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
	"github.com/nizwa-nursing/cpd-portal/internal/core/events"
)

type Source interface {
	BoardOfLeaders(ctx context.Context) ([]cpd.Leader, error)
	Announcements(ctx context.Context) ([]cpd.Announcement, error)
}

// Leaders is the board-of-leaders view of one browser profile.
type Leaders struct {
	source Source
	logger *slog.Logger

	mu    sync.RWMutex
	cards []LeaderCard
}

func NewLeaders(source Source, logger *slog.Logger) *Leaders {
	return &Leaders{source: source, logger: logger}
}

// Load replaces the list. A failed fetch leaves the list empty so the view
// shows its placeholder.
func (l *Leaders) Load(ctx context.Context) error {
	recs, err := l.source.BoardOfLeaders(ctx)
	if err != nil {
		l.logger.ErrorContext(ctx, "error loading leaders", "error", err)
	} else if len(recs) == 0 {
		l.logger.InfoContext(ctx, "board of leaders is empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.cards = leaderCards(recs)
	return err
}

type LeadersPage struct {
	Leaders []LeaderCard
	Empty   bool
}

func (l *Leaders) Page() LeadersPage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return LeadersPage{
		Leaders: append([]LeaderCard(nil), l.cards...),
		Empty:   len(l.cards) == 0,
	}
}

// Announcements is the announcements view of one browser profile.
type Announcements struct {
	source Source
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger

	mu     sync.RWMutex
	cards  []AnnouncementCard
	loaded bool
}

func NewAnnouncements(source Source, loc *time.Location, logger *slog.Logger) *Announcements {
	if loc == nil {
		loc = time.Local
	}
	return &Announcements{source: source, loc: loc, now: time.Now, logger: logger}
}

func (a *Announcements) WithClock(now func() time.Time) *Announcements {
	a.now = now
	return a
}

// Load replaces the list, most severe first. Announcements of equal
// severity keep the backend's order.
func (a *Announcements) Load(ctx context.Context) error {
	recs, err := a.source.Announcements(ctx)
	if err != nil {
		a.logger.ErrorContext(ctx, "error loading announcements", "error", err)
		recs = nil
	} else if len(recs) == 0 {
		a.logger.InfoContext(ctx, "no announcements to show")
	}

	now := a.now()
	cards := make([]AnnouncementCard, 0, len(recs))
	for _, rec := range recs {
		cards = append(cards, announcementCard(rec, a.loc, now))
	}
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].severity > cards[j].severity
	})

	a.mu.Lock()
	defer a.mu.Unlock()
	a.cards = cards
	a.loaded = true
	return err
}

// OnAcknowledgedMutation re-reads after a new announcement, but only once the
// view has been shown.
func (a *Announcements) OnAcknowledgedMutation(ctx context.Context, ev events.Event) error {
	a.mu.RLock()
	loaded := a.loaded
	a.mu.RUnlock()
	if !loaded {
		return nil
	}
	a.logger.DebugContext(ctx, "refreshing announcements", "trigger", ev.EventType())
	return a.Load(ctx)
}

type AnnouncementsPage struct {
	Announcements []AnnouncementCard
	Empty         bool
}

func (a *Announcements) Page() AnnouncementsPage {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return AnnouncementsPage{
		Announcements: append([]AnnouncementCard(nil), a.cards...),
		Empty:         len(a.cards) == 0,
	}
}
