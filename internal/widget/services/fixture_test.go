package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/cartwidget/internal/logging"
	"github.com/dmitrijs2005/cartwidget/internal/widget/events"
	"github.com/dmitrijs2005/cartwidget/internal/widget/models"
	"github.com/dmitrijs2005/cartwidget/internal/widget/storage"
	"github.com/dmitrijs2005/cartwidget/internal/widget/storage/storagetest"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

// fakeScheduler records callbacks; tests fire them explicitly.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimerHandle struct {
	s *fakeScheduler
	t *fakeTimer
}

func (h fakeTimerHandle) Stop() bool {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	if h.t.stopped || h.t.fired {
		return false
	}
	h.t.stopped = true
	return true
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return fakeTimerHandle{s: s, t: t}
}

// FireAll runs every pending callback and returns how many ran.
func (s *fakeScheduler) FireAll() int {
	s.mu.Lock()
	var due []func()
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t.f)
		}
	}
	s.mu.Unlock()
	for _, f := range due {
		f()
	}
	return len(due)
}

// ForceFire runs the last callback even if it was stopped, as a timer
// that raced with Stop would.
func (s *fakeScheduler) ForceFire() {
	s.mu.Lock()
	t := s.timers[len(s.timers)-1]
	s.mu.Unlock()
	t.f()
}

type recordingView struct {
	mu               sync.Mutex
	opens, refreshes int
}

func (v *recordingView) Open(context.Context) {
	v.mu.Lock()
	v.opens++
	v.mu.Unlock()
}

func (v *recordingView) Refresh(context.Context) {
	v.mu.Lock()
	v.refreshes++
	v.mu.Unlock()
}

type recordingRenderer struct {
	mu    sync.Mutex
	calls []ViewModel
	open  bool
}

func (r *recordingRenderer) Render(vm ViewModel, open bool) {
	r.mu.Lock()
	r.calls = append(r.calls, vm)
	r.open = open
	r.mu.Unlock()
}

func (r *recordingRenderer) last() (ViewModel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return ViewModel{}, false
	}
	return r.calls[len(r.calls)-1], true
}

// failingStore wraps a real store; the flagged operations fail.
type failingStore struct {
	Storage
	failSet    bool
	failUpdate bool
	// failPrefix fails Set for keys with this prefix.
	failPrefix string
}

var errQuota = errors.New("database or disk is full")

func (f *failingStore) Set(ctx context.Context, scope storage.Scope, key string, v any) error {
	if f.failSet || (f.failPrefix != "" && strings.HasPrefix(key, f.failPrefix)) {
		return errQuota
	}
	return f.Storage.Set(ctx, scope, key, v)
}

func (f *failingStore) Update(ctx context.Context, scope storage.Scope, fn func(t *storage.Txn) error) error {
	if f.failUpdate {
		return errQuota
	}
	return f.Storage.Update(ctx, scope, fn)
}

type tab struct {
	store    *storage.Store
	session  *SessionReader
	cart     *CartStore
	merge    *MergeEngine
	panel    *Panel
	render   *recordingRenderer
	ledger   *Ledger
	checkout *Checkout
	sched    *fakeScheduler
	bus      *events.Bus
}

func newTab(t *testing.T, dsn string) *tab {
	t.Helper()
	st := storagetest.Open(t, dsn)
	return newTabOver(t, st, st)
}

// newTabOver builds the services over svc, which usually is st itself.
func newTabOver(t *testing.T, st *storage.Store, svc Storage) *tab {
	t.Helper()
	log := logging.Discard()
	tb := &tab{store: st, sched: &fakeScheduler{}, bus: events.NewBus(), render: &recordingRenderer{}}
	tb.session = NewSessionReader(svc)
	tb.cart = NewCartStore(svc, tb.session, log)
	tb.merge = NewMergeEngine(svc, tb.session, log)
	tb.panel = NewPanel(tb.cart, "$", tb.render)
	tb.ledger = NewLedger(svc, log)
	tb.checkout = NewCheckout(svc, tb.cart, tb.session, tb.ledger, log, CheckoutOptions{
		PaymentDelay:     900 * time.Millisecond,
		PageURL:          "file:///shop/index.html",
		ConfirmationPage: "checkout.html",
		CategoriesDir:    "categories",
		Scheduler:        tb.sched,
	})
	return tb
}

func newSingleTab(t *testing.T) *tab {
	return newTab(t, storagetest.SharedDSN(t))
}

func (tb *tab) login(t *testing.T, s models.Session) {
	t.Helper()
	require.NoError(t, tb.store.Set(context.Background(), storage.LongTerm, models.SessionKey, s))
}

func (tb *tab) logout(t *testing.T) {
	t.Helper()
	require.NoError(t, tb.store.Remove(context.Background(), storage.LongTerm, models.SessionKey))
}

func (tb *tab) stored(t *testing.T, key string) (models.Cart, bool) {
	t.Helper()
	var c models.Cart
	ok := tb.store.Get(context.Background(), storage.LongTerm, key, &c)
	return c, ok
}

func item(id string, qty int) models.LineItem {
	return models.LineItem{ID: id, Title: "Item " + id, Price: "$10.00", Qty: qty}
}
