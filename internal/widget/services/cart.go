package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/cartwidget/internal/common"
	"github.com/dmitrijs2005/cartwidget/internal/logging"
	"github.com/dmitrijs2005/cartwidget/internal/widget/models"
	"github.com/dmitrijs2005/cartwidget/internal/widget/storage"
	"github.com/shopspring/decimal"
)

// View is notified after every cart mutation.
type View interface {
	Refresh(ctx context.Context)
	Open(ctx context.Context)
}

// CartStore keeps the active cart in the long-term scope. The active key
// follows the session at the moment of each call.
type CartStore struct {
	mu      sync.Mutex
	store   Storage
	session *SessionReader
	log     logging.Logger
	view    View
}

func NewCartStore(store Storage, session *SessionReader, log logging.Logger) *CartStore {
	return &CartStore{store: store, session: session, log: log}
}

// SetView attaches the panel that mirrors the cart.
func (c *CartStore) SetView(v View) {
	c.mu.Lock()
	c.view = v
	c.mu.Unlock()
}

// ActiveKey is the guest key unless the current session carries an id.
func (c *CartStore) ActiveKey(ctx context.Context) string {
	if id := c.session.Current(ctx).UserID(); id != "" {
		return models.UserCartKey(id)
	}
	return models.GuestCartKey
}

// Load returns the normalized active cart; empty when unset or unreadable.
func (c *CartStore) Load(ctx context.Context) models.Cart {
	var cart models.Cart
	if !c.store.Get(ctx, storage.LongTerm, c.ActiveKey(ctx), &cart) {
		return models.Cart{}
	}
	return cart.Normalize()
}

// Save writes cart under the active key. A failed write is logged by the
// store; the caller's in-memory result stands.
func (c *CartStore) Save(ctx context.Context, cart models.Cart) error {
	return c.store.Set(ctx, storage.LongTerm, c.ActiveKey(ctx), cart.Clone())
}

func (c *CartStore) mutate(ctx context.Context, fn func(models.Cart) models.Cart) (models.Cart, View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cart := fn(c.Load(ctx))
	_ = c.Save(ctx, cart)
	return cart, c.view
}

// Add sums the quantity into an existing row with the same id, or appends
// the item. The panel is refreshed and opened.
func (c *CartStore) Add(ctx context.Context, item models.LineItem) models.Cart {
	cart, view := c.mutate(ctx, func(cart models.Cart) models.Cart {
		if i := cart.Index(item.ID); i >= 0 {
			cart[i].Qty = cart[i].Quantity() + item.Quantity()
			return cart
		}
		item.Qty = item.Quantity()
		return append(cart, item)
	})
	if view != nil {
		view.Open(ctx)
	}
	return cart
}

// ItemInput is what an external producer (the product card, a script)
// hands to AddToCart. Price may be a display string or a number.
type ItemInput struct {
	ID    string
	Title string
	Price any
	Img   string
	Desc  string
	Qty   int
}

// AddToCart is the public add entry point. It normalizes the price to a
// display string and defaults the quantity to one.
func (c *CartStore) AddToCart(ctx context.Context, in ItemInput) (models.Cart, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("%w: missing id", common.ErrInvalidItem)
	}
	price, err := normalizePrice(in.Price)
	if err != nil {
		return nil, err
	}
	qty := in.Qty
	if qty < 1 {
		qty = 1
	}
	return c.Add(ctx, models.LineItem{
		ID:    in.ID,
		Title: in.Title,
		Price: price,
		Img:   in.Img,
		Desc:  in.Desc,
		Qty:   qty,
	}), nil
}

func normalizePrice(v any) (models.Price, error) {
	switch p := v.(type) {
	case nil:
		return "", nil
	case models.Price:
		return p, nil
	case string:
		return models.Price(p), nil
	case decimal.Decimal:
		return models.PriceFromAmount(p), nil
	case float64:
		return models.PriceFromAmount(decimal.NewFromFloat(p)), nil
	case float32:
		return models.PriceFromAmount(decimal.NewFromFloat32(p)), nil
	case int:
		return models.PriceFromAmount(decimal.NewFromInt(int64(p))), nil
	case int64:
		return models.PriceFromAmount(decimal.NewFromInt(p)), nil
	case json.Number:
		d, err := decimal.NewFromString(p.String())
		if err != nil {
			return "", fmt.Errorf("%w: price %q", common.ErrInvalidItem, p)
		}
		return models.PriceFromAmount(d), nil
	default:
		return "", fmt.Errorf("%w: unsupported price type %T", common.ErrInvalidItem, v)
	}
}

// Remove drops the row with id.
func (c *CartStore) Remove(ctx context.Context, id string) models.Cart {
	cart, view := c.mutate(ctx, func(cart models.Cart) models.Cart {
		out := cart[:0]
		for _, it := range cart {
			if it.ID != id {
				out = append(out, it)
			}
		}
		return out
	})
	refresh(ctx, view)
	return cart
}

// ChangeQuantity adds delta to the row's quantity. A result of zero or
// less removes the row.
func (c *CartStore) ChangeQuantity(ctx context.Context, id string, delta int) models.Cart {
	cart, view := c.mutate(ctx, func(cart models.Cart) models.Cart {
		i := cart.Index(id)
		if i < 0 {
			return cart
		}
		q := max(0, cart[i].Quantity()+delta)
		if q == 0 {
			return append(cart[:i], cart[i+1:]...)
		}
		cart[i].Qty = q
		return cart
	})
	refresh(ctx, view)
	return cart
}

// Clear empties the active cart.
func (c *CartStore) Clear(ctx context.Context) {
	_, view := c.mutate(ctx, func(models.Cart) models.Cart { return models.Cart{} })
	refresh(ctx, view)
}

// ClearWith empties the active cart in the same long-term transaction as
// fn. If fn or the cart write fails nothing is written and the error is
// returned; otherwise the view is refreshed.
func (c *CartStore) ClearWith(ctx context.Context, fn func(tx *storage.Txn) error) error {
	c.mu.Lock()
	key := c.ActiveKey(ctx)
	err := c.store.Update(ctx, storage.LongTerm, func(tx *storage.Txn) error {
		if err := fn(tx); err != nil {
			return err
		}
		return tx.Set(ctx, key, models.Cart{})
	})
	view := c.view
	c.mu.Unlock()

	if err != nil {
		return err
	}
	refresh(ctx, view)
	return nil
}

// Total of the active cart.
func (c *CartStore) Total(ctx context.Context) decimal.Decimal {
	return c.Load(ctx).Total()
}

func refresh(ctx context.Context, v View) {
	if v != nil {
		v.Refresh(ctx)
	}
}
