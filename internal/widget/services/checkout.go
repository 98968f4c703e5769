package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/cartwidget/internal/common"
	"github.com/dmitrijs2005/cartwidget/internal/logging"
	"github.com/dmitrijs2005/cartwidget/internal/netx"
	"github.com/dmitrijs2005/cartwidget/internal/widget/models"
	"github.com/dmitrijs2005/cartwidget/internal/widget/storage"
	"github.com/google/uuid"
)

type State int

const (
	Idle State = iota
	FormOpen
	Validating
	Processing
	Committed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FormOpen:
		return "form-open"
	case Validating:
		return "validating"
	case Processing:
		return "processing"
	case Committed:
		return "committed"
	default:
		return "unknown"
	}
}

// Timer is a scheduled callback that can be stopped before it fires.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Prefill holds the values the form opens with.
type Prefill struct {
	Name  string
	Email string
}

// Outcome is delivered once per accepted submission: either the committed
// order and where to navigate, or the reason nothing was committed.
type Outcome struct {
	Order       *models.Order
	RedirectURL string
	Err         error
}

type CheckoutOptions struct {
	// PaymentDelay simulates the payment processor.
	PaymentDelay time.Duration
	// PageURL, ConfirmationPage and CategoriesDir resolve the handoff URL.
	PageURL          string
	ConfirmationPage string
	CategoriesDir    string
	Scheduler        Scheduler
	Now              func() time.Time
}

// Checkout drives the checkout form: validation, a cancellable payment
// delay and the commit that turns the cart into an order.
type Checkout struct {
	store   Storage
	cart    *CartStore
	session *SessionReader
	ledger  *Ledger
	log     logging.Logger
	opts    CheckoutOptions

	mu      sync.Mutex
	state   State
	formID  uint64
	prefill Prefill
	timer   Timer
	pending chan Outcome
	form    Form
}

func NewCheckout(store Storage, cart *CartStore, session *SessionReader, ledger *Ledger, log logging.Logger, opts CheckoutOptions) *Checkout {
	if opts.Scheduler == nil {
		opts.Scheduler = clockScheduler{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Checkout{store: store, cart: cart, session: session, ledger: ledger, log: log, opts: opts}
}

func (c *Checkout) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Open shows the form. Opening an already open form returns the same
// prefill. Name and email come from the session unless the previous
// checkout left the skip-prefill flag, which is consumed here.
func (c *Checkout) Open(ctx context.Context) Prefill {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == FormOpen || c.state == Processing {
		return c.prefill
	}

	c.formID++
	c.state = FormOpen
	c.prefill = Prefill{}

	var skip bool
	if c.store.Get(ctx, storage.ShortTerm, models.SkipPrefillKey, &skip) {
		_ = c.store.Remove(ctx, storage.ShortTerm, models.SkipPrefillKey)
	}
	if !skip {
		if s := c.session.Current(ctx); s != nil {
			c.prefill = Prefill{Name: s.Name, Email: s.Email}
		}
	}
	return c.prefill
}

// Close hides the form. A pending payment is canceled and its outcome
// reports common.ErrCheckoutCanceled.
func (c *Checkout) Close(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Processing {
		c.timer.Stop()
		c.finish(Outcome{Err: common.ErrCheckoutCanceled})
		c.log.Info(ctx, "checkout canceled")
	}
	c.formID++
	c.state = Idle
}

// Submit validates f against the freshly loaded cart. Validation failures
// return a *ValidationError and leave the form open. On success the payment
// delay starts and the returned channel receives exactly one Outcome.
func (c *Checkout) Submit(ctx context.Context, f Form) (<-chan Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Processing:
		return nil, common.ErrCheckoutBusy
	case FormOpen:
	default:
		return nil, common.ErrFormClosed
	}

	c.state = Validating
	form, err := Validate(f, c.cart.Load(ctx))
	if err != nil {
		form.Wipe()
		c.state = FormOpen
		return nil, err
	}

	c.state = Processing
	ch := make(chan Outcome, 1)
	c.pending = ch
	c.form = form
	id := c.formID
	bg := context.WithoutCancel(ctx)
	c.timer = c.opts.Scheduler.AfterFunc(c.opts.PaymentDelay, func() {
		c.fire(bg, id)
	})
	return ch, nil
}

func (c *Checkout) fire(ctx context.Context, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id != c.formID || c.state != Processing {
		return
	}
	out := c.commit(ctx, c.form)
	if out.Err != nil {
		c.state = FormOpen
	} else {
		c.state = Committed
	}
	c.finish(out)
}

// finish delivers out and wipes the card data of the submitted form.
func (c *Checkout) finish(out Outcome) {
	c.form.Wipe()
	c.form = Form{}
	if c.pending != nil {
		c.pending <- out
		c.pending = nil
	}
	c.timer = nil
}

// commit snapshots the cart, then appends the order and empties the cart in
// one transaction. On failure neither is written.
func (c *Checkout) commit(ctx context.Context, f Form) Outcome {
	items := c.cart.Load(ctx)
	if len(items) == 0 {
		return Outcome{Err: &ValidationError{Field: "cart", Message: "The cart is empty.", cause: common.ErrEmptyCart}}
	}

	order := models.Order{
		ID: "order_" + uuid.NewString(),
		Customer: models.Customer{
			Name:    f.Name,
			Email:   f.Email,
			Address: f.Address,
			Phone:   f.Phone,
			Notes:   f.Notes,
		},
		Payment:   MaskCard(f.Card),
		Items:     items,
		Total:     items.Total(),
		CreatedAt: c.opts.Now().UTC(),
	}
	if uid := c.session.Current(ctx).UserID(); uid != "" {
		order.UserID = &uid
	}

	err := c.cart.ClearWith(ctx, func(tx *storage.Txn) error {
		return c.ledger.AppendTx(ctx, tx, order)
	})
	if err != nil {
		c.log.Error(ctx, "order not saved, cart kept", "order", order.ID, "err", err)
		return Outcome{Err: fmt.Errorf("%w: %w", common.ErrLedgerWrite, err)}
	}
	if err := c.ledger.SetLast(ctx, order); err != nil {
		c.log.Warn(ctx, "last order pointer not saved", "order", order.ID, "err", err)
	}
	_ = c.store.Set(ctx, storage.ShortTerm, models.SkipPrefillKey, true)

	c.log.Info(ctx, "order committed", "order", order.ID, "total", order.Total.StringFixed(2))
	return Outcome{
		Order:       &order,
		RedirectURL: netx.ConfirmationURL(c.opts.PageURL, c.opts.ConfirmationPage, c.opts.CategoriesDir, order.ID),
	}
}
