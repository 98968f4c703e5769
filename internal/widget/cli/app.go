package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/cartwidget/internal/filex"
	"github.com/dmitrijs2005/cartwidget/internal/logging"
	"github.com/dmitrijs2005/cartwidget/internal/widget/config"
	"github.com/dmitrijs2005/cartwidget/internal/widget/events"
	"github.com/dmitrijs2005/cartwidget/internal/widget/services"
	"github.com/dmitrijs2005/cartwidget/internal/widget/storage"
)

// changeLogRetention bounds the shared change log; tabs poll far more often.
const changeLogRetention = 24 * time.Hour

type App struct {
	config *config.Config
	log    logging.Logger
	store  *storage.Store

	session  *services.SessionReader
	cart     *services.CartStore
	merge    *services.MergeEngine
	panel    *services.Panel
	ledger   *services.Ledger
	checkout *services.Checkout
	bus      *events.Bus
	syncer   *services.Syncer

	reader *bufio.Reader
	outMu  sync.Mutex
	out    io.Writer
}

// NewApp opens the store under cfg.DataDir and wires the services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.NewTextLogger(os.Stderr, c.LogLevel)

	dir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	cfg := *c
	cfg.DataDir = dir

	st, err := storage.Open(ctx, storage.Options{
		LongTermDSN: storage.FileDSN(cfg.DatabasePath()),
		Logger:      log,
	})
	if err != nil {
		log.Error(ctx, "error initializing storage", "err", err)
		return nil, err
	}

	if n, err := st.PruneChanges(ctx, changeLogRetention); err != nil {
		log.Warn(ctx, "change log prune failed", "err", err)
	} else if n > 0 {
		log.Debug(ctx, "change log pruned", "rows", n)
	}

	return newApp(&cfg, st, log, nil, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, st *storage.Store, log logging.Logger, sched services.Scheduler, in io.Reader, out io.Writer) *App {
	a := &App{
		config: c,
		log:    log.With("tab", st.Origin()),
		store:  st,
		bus:    events.NewBus(),
		reader: bufio.NewReader(in),
		out:    out,
	}
	a.session = services.NewSessionReader(st)
	a.cart = services.NewCartStore(st, a.session, a.log)
	a.merge = services.NewMergeEngine(st, a.session, a.log)
	a.panel = services.NewPanel(a.cart, c.Currency, &textRenderer{app: a})
	a.ledger = services.NewLedger(st, a.log)
	a.checkout = services.NewCheckout(st, a.cart, a.session, a.ledger, a.log, services.CheckoutOptions{
		PaymentDelay:     c.PaymentDelay,
		PageURL:          c.PageURL,
		ConfirmationPage: c.ConfirmationPage,
		CategoriesDir:    c.CategoriesDir,
		Scheduler:        sched,
	})
	a.syncer = services.NewSyncer(a.bus, a.merge, a.panel, a.log)
	return a
}

// Run starts the storage watcher and the REPL; it returns when the user
// exits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	defer a.store.Close()
	defer a.syncer.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := services.NewWatcher(ctx, a.store, a.bus, a.log)
	if err != nil {
		return fmt.Errorf("change watcher: %w", err)
	}
	a.syncer.Init(ctx)

	go w.Run(ctx, a.config.SyncInterval)

	a.printf("Cart widget (type 'help' for commands)\n")
	runREPL(ctx, a, a.status, a.reader)
	return nil
}

func (a *App) status() string {
	who := "guest"
	if id := a.session.Current(context.Background()).UserID(); id != "" {
		who = id
	}
	return fmt.Sprintf("cart(%d) %s", a.panel.Badge(), who)
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}
