package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cartwidget/internal/logging"
	"github.com/dmitrijs2005/cartwidget/internal/widget/events"
	"github.com/dmitrijs2005/cartwidget/internal/widget/models"
)

// ChangeFeed is the long-term change log of the store.
type ChangeFeed interface {
	Origin() string
	LatestChange(ctx context.Context) (int64, error)
	ChangesSince(ctx context.Context, after int64, limit int) ([]models.Change, error)
}

const pollBatch = 256

// Watcher turns other tabs' writes into bus notifications.
type Watcher struct {
	feed ChangeFeed
	bus  *events.Bus
	log  logging.Logger
	last int64
}

// NewWatcher starts watching after the newest existing change.
func NewWatcher(ctx context.Context, feed ChangeFeed, bus *events.Bus, log logging.Logger) (*Watcher, error) {
	last, err := feed.LatestChange(ctx)
	if err != nil {
		return nil, err
	}
	return &Watcher{feed: feed, bus: bus, log: log, last: last}, nil
}

// Poll publishes every change made by other tabs since the previous poll
// and returns how many were published. Not safe for concurrent use.
func (w *Watcher) Poll(ctx context.Context) (int, error) {
	published := 0
	for {
		batch, err := w.feed.ChangesSince(ctx, w.last, pollBatch)
		if err != nil {
			return published, err
		}
		for _, c := range batch {
			w.last = c.Seq
			if c.Origin == w.feed.Origin() {
				continue
			}
			w.log.Debug(ctx, "storage change", "key", c.Key, "origin", c.Origin, "seq", c.Seq)
			w.bus.Publish(ctx, c)
			published++
		}
		if len(batch) < pollBatch {
			return published, nil
		}
	}
}

// Run polls every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.Poll(ctx); err != nil && ctx.Err() == nil {
				w.log.Warn(ctx, "storage poll failed", "err", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Syncer reacts to storage notifications: a session change may merge
// carts, any cart change re-renders the panel.
type Syncer struct {
	merge *MergeEngine
	panel *Panel
	log   logging.Logger
	unsub []func()
}

func NewSyncer(bus *events.Bus, merge *MergeEngine, panel *Panel, log logging.Logger) *Syncer {
	s := &Syncer{merge: merge, panel: panel, log: log}
	s.unsub = append(s.unsub,
		bus.Subscribe(models.SessionKey, func(ctx context.Context, _ models.Change) { s.SessionChanged(ctx) }),
		bus.Subscribe(models.CartKeyPattern, func(ctx context.Context, _ models.Change) { s.panel.Refresh(ctx) }),
	)
	return s
}

// Init runs the page-load checks: merge for an already logged-in user and
// a first render.
func (s *Syncer) Init(ctx context.Context) {
	s.SessionChanged(ctx)
}

// SessionChanged merges if the session now names a new user, then
// re-renders. The watcher skips this tab's own writes, so a tab that
// writes the session itself calls this directly.
func (s *Syncer) SessionChanged(ctx context.Context) {
	if _, err := s.merge.OnSession(ctx); err != nil {
		s.log.Warn(ctx, "merge after session change failed", "err", err)
	}
	s.panel.Refresh(ctx)
}

func (s *Syncer) Close() {
	for _, u := range s.unsub {
		u()
	}
	s.unsub = nil
}
