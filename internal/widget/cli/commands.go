package cli

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strconv"

	"github.com/dmitrijs2005/cartwidget/internal/common"
	"github.com/dmitrijs2005/cartwidget/internal/netx"
	"github.com/dmitrijs2005/cartwidget/internal/widget/models"
	"github.com/dmitrijs2005/cartwidget/internal/widget/services"
	"github.com/dmitrijs2005/cartwidget/internal/widget/storage"
	"github.com/shopspring/decimal"
)

var errUsage = errors.New("usage")

func usage(s string) error {
	return fmt.Errorf("%w: %s", errUsage, s)
}

// Add puts a product into the cart. Without arguments it asks for the
// product card fields and derives the id from title and image.
func (a *App) Add(ctx context.Context, args []string) error {
	var in services.ItemInput
	switch {
	case len(args) == 0:
		var err error
		if in, err = a.promptItem(); err != nil {
			return err
		}
	case len(args) >= 3:
		in = services.ItemInput{ID: args[0], Title: args[1], Price: parsePrice(args[2])}
		if len(args) > 3 {
			q, err := strconv.Atoi(args[3])
			if err != nil {
				return usage("add <id> <title> <price> [qty]")
			}
			in.Qty = q
		}
	default:
		return usage("add <id> <title> <price> [qty]")
	}
	_, err := a.cart.AddToCart(ctx, in)
	return err
}

// parsePrice passes numbers through as amounts and anything else as a
// display string.
func parsePrice(s string) any {
	if d, err := decimal.NewFromString(s); err == nil {
		return d
	}
	return s
}

func (a *App) promptItem() (services.ItemInput, error) {
	var in services.ItemInput
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Title", &in.Title},
		{"Image URL", &in.Img},
		{"Description", &in.Desc},
	}
	for _, f := range fields {
		v, err := GetSimpleText(a.reader, f.prompt, a.out)
		if err != nil {
			return in, err
		}
		*f.dst = v
	}
	price, err := GetSimpleText(a.reader, "Price", a.out)
	if err != nil {
		return in, err
	}
	in.Price = parsePrice(price)
	qty, err := GetTextDefault(a.reader, "Quantity", "1", a.out)
	if err != nil {
		return in, err
	}
	if in.Qty, err = strconv.Atoi(qty); err != nil {
		return in, fmt.Errorf("quantity %q: %w", qty, common.ErrInvalidItem)
	}
	if in.Title == "" {
		return in, fmt.Errorf("%w: missing title", common.ErrInvalidItem)
	}
	in.ID = models.ProductID(in.Title, in.Img)
	return in, nil
}

func (a *App) List(ctx context.Context) error {
	vm := services.Project(a.cart.Load(ctx), a.config.Currency)
	a.outMu.Lock()
	defer a.outMu.Unlock()
	writePanel(a.out, vm)
	return nil
}

func (a *App) OpenPanel(ctx context.Context) error {
	a.panel.Open(ctx)
	return nil
}

func (a *App) ClosePanel(ctx context.Context) error {
	if !a.panel.Visible() {
		a.printf("The cart is not open.\n")
		return nil
	}
	a.panel.Close(ctx)
	a.printf("Cart closed.\n")
	return nil
}

func (a *App) changeQty(ctx context.Context, args []string, delta int, name string) error {
	if len(args) != 1 {
		return usage(name + " <id>")
	}
	if a.cart.Load(ctx).Index(args[0]) < 0 {
		return fmt.Errorf("%s: %w", args[0], common.ErrorNotFound)
	}
	a.cart.ChangeQuantity(ctx, args[0], delta)
	return nil
}

func (a *App) Inc(ctx context.Context, args []string) error {
	return a.changeQty(ctx, args, 1, "inc")
}

func (a *App) Dec(ctx context.Context, args []string) error {
	return a.changeQty(ctx, args, -1, "dec")
}

func (a *App) Remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("rm <id>")
	}
	if a.cart.Load(ctx).Index(args[0]) < 0 {
		return fmt.Errorf("%s: %w", args[0], common.ErrorNotFound)
	}
	a.cart.Remove(ctx, args[0])
	return nil
}

func (a *App) Clear(ctx context.Context) error {
	if len(a.cart.Load(ctx)) == 0 {
		a.printf("The cart is already empty.\n")
		return nil
	}
	if !Confirm(a.reader, "Empty the cart?", a.out) {
		return nil
	}
	a.cart.Clear(ctx)
	a.printf("Cart emptied.\n")
	return nil
}

// Checkout opens the checkout form, retries on validation errors until the
// user gives up, then waits for the payment outcome. Ctrl-C while the
// payment is processing cancels it.
func (a *App) Checkout(ctx context.Context, args []string) error {
	sample := len(args) > 0 && args[0] == "--test"

	prefill := a.checkout.Open(ctx)
	a.printf("Order total: %s%s\n", a.config.Currency, a.cart.Total(ctx).StringFixed(2))
	var (
		ch  <-chan services.Outcome
		err error
	)
	for {
		var form services.Form
		if sample {
			form = services.SampleForm(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
			a.printf("Filled in test data for %s.\n", form.Name)
		} else if form, err = a.promptForm(prefill); err != nil {
			a.checkout.Close(ctx)
			return err
		}

		ch, err = a.checkout.Submit(ctx, form)
		form.Wipe()
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			a.printf("%s\n", verr.Message)
			if sample || !Confirm(a.reader, "Try again?", a.out) {
				a.checkout.Close(ctx)
				return nil
			}
			continue
		}
		if err != nil {
			a.checkout.Close(ctx)
			return err
		}
		break
	}

	a.printf("Processing payment... (Ctrl-C to cancel)\n")
	out := a.awaitPayment(ctx, ch)
	switch {
	case errors.Is(out.Err, common.ErrCheckoutCanceled):
		a.printf("Payment canceled.\n")
		return nil
	case out.Err != nil:
		var verr *services.ValidationError
		if errors.As(out.Err, &verr) {
			a.printf("%s\n", verr.Message)
		} else {
			a.printf("The order could not be completed. Please try again.\n")
		}
		a.checkout.Close(ctx)
		return nil
	}

	a.printf("Payment accepted. Redirecting to %s\n", out.RedirectURL)
	a.outMu.Lock()
	writeOrder(a.out, out.Order, a.config.Currency)
	a.outMu.Unlock()
	return nil
}

func (a *App) awaitPayment(ctx context.Context, ch <-chan services.Outcome) services.Outcome {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	select {
	case out := <-ch:
		return out
	case <-sigCtx.Done():
		a.checkout.Close(ctx)
		return <-ch
	}
}

func (a *App) promptForm(prefill services.Prefill) (services.Form, error) {
	var f services.Form
	var err error
	if f.Name, err = GetTextDefault(a.reader, "Name", prefill.Name, a.out); err != nil {
		return f, err
	}
	if f.Email, err = GetTextDefault(a.reader, "Email", prefill.Email, a.out); err != nil {
		return f, err
	}
	text := []struct {
		prompt string
		dst    *string
	}{
		{"Shipping address", &f.Address},
		{"Phone", &f.Phone},
		{"Notes", &f.Notes},
	}
	for _, t := range text {
		if *t.dst, err = GetSimpleText(a.reader, t.prompt, a.out); err != nil {
			return f, err
		}
	}

	if f.Card, err = GetSecret(a.reader, "Card number", a.out); err != nil {
		return f, err
	}
	if f.Expiry, err = GetSimpleText(a.reader, "Expiry (MM/YY)", a.out); err != nil {
		f.Wipe()
		return f, err
	}
	if f.CVC, err = GetSecret(a.reader, "CVC", a.out); err != nil {
		f.Wipe()
		return f, err
	}
	return f, nil
}

func (a *App) Orders(ctx context.Context) error {
	orders := a.ledger.All(ctx)
	if len(orders) == 0 {
		a.printf("No orders yet.\n")
		return nil
	}
	for _, o := range orders {
		a.printf("%s\n", orderLine(o, a.config.Currency))
	}
	return nil
}

// Confirm shows the confirmation view for an order id or a confirmation
// URL. Without an argument it shows the last order, once.
func (a *App) Confirm(ctx context.Context, args []string) error {
	var (
		o   *models.Order
		err error
	)
	if len(args) > 0 {
		id := netx.OrderFromURL(args[0])
		if id == "" {
			return usage("confirm [<order id | url>]")
		}
		if o, err = a.ledger.Find(ctx, id); err != nil {
			if last, ok := a.ledger.Last(ctx); ok && last.ID == id {
				o, err = last, nil
			}
		}
		if err != nil {
			return err
		}
	} else {
		last, ok := a.ledger.Last(ctx)
		if !ok {
			return fmt.Errorf("last order: %w", common.ErrorNotFound)
		}
		o = last
		a.ledger.ClearLast(ctx)
	}

	a.printf("Thank you for your purchase!\n")
	a.outMu.Lock()
	writeOrder(a.out, o, a.config.Currency)
	a.outMu.Unlock()
	return nil
}

// Login writes the session record the way the site's auth pages do.
func (a *App) Login(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("login <id> [name] [email]")
	}
	s := models.Session{ID: args[0]}
	if len(args) > 1 {
		s.Name = args[1]
	}
	if len(args) > 2 {
		s.Email = args[2]
	}
	if err := a.store.Set(ctx, storage.LongTerm, models.SessionKey, s); err != nil {
		return err
	}
	a.syncer.SessionChanged(ctx)
	a.printf("Signed in as %s.\n", s.ID)
	return nil
}

// Storage lists the keys held in both scopes.
func (a *App) Storage(ctx context.Context) error {
	for _, scope := range []storage.Scope{storage.LongTerm, storage.ShortTerm} {
		keys, err := a.store.Keys(ctx, scope)
		if err != nil {
			return err
		}
		a.printf("%s (%d):\n", scope, len(keys))
		for _, k := range keys {
			a.printf("  %s\n", k)
		}
	}
	return nil
}

// Reset wipes both scopes after confirmation, like clearing site data:
// carts, orders and the session are gone for every tab.
func (a *App) Reset(ctx context.Context) error {
	if !Confirm(a.reader, "Delete all stored carts, orders and the session?", a.out) {
		return nil
	}
	a.checkout.Close(ctx)
	for _, scope := range []storage.Scope{storage.LongTerm, storage.ShortTerm} {
		if err := a.store.Clear(ctx, scope); err != nil {
			return err
		}
	}
	a.syncer.SessionChanged(ctx)
	a.printf("Storage cleared.\n")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.store.Remove(ctx, storage.LongTerm, models.SessionKey); err != nil {
		return err
	}
	_ = a.store.Remove(ctx, storage.ShortTerm, models.SessionKey)
	a.syncer.SessionChanged(ctx)
	a.printf("Signed out.\n")
	return nil
}
