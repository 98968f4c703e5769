package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cartwidget/internal/common"
	"github.com/dmitrijs2005/cartwidget/internal/logging"
	"github.com/dmitrijs2005/cartwidget/internal/widget/models"
	"github.com/dmitrijs2005/cartwidget/internal/widget/storage"
)

// Ledger is the append-only order list plus the "last order" pointer used
// by the confirmation view.
type Ledger struct {
	store Storage
	log   logging.Logger
}

func NewLedger(store Storage, log logging.Logger) *Ledger {
	return &Ledger{store: store, log: log}
}

// Append adds o to the end of the ledger. An absent ledger counts as
// empty; one that cannot be read is left alone. Failures wrap
// common.ErrLedgerWrite.
func (l *Ledger) Append(ctx context.Context, o models.Order) error {
	err := l.store.Update(ctx, storage.LongTerm, func(tx *storage.Txn) error {
		return l.AppendTx(ctx, tx, o)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrLedgerWrite, err)
	}
	return nil
}

// AppendTx is Append inside the caller's long-term transaction.
func (l *Ledger) AppendTx(ctx context.Context, tx *storage.Txn, o models.Order) error {
	var orders []models.Order
	if _, err := tx.Lookup(ctx, models.OrdersKey, &orders); err != nil {
		l.log.Error(ctx, "order ledger unreadable", "err", err)
		return err
	}
	return tx.Set(ctx, models.OrdersKey, append(orders, o))
}

// All returns every order, oldest first.
func (l *Ledger) All(ctx context.Context) []models.Order {
	var orders []models.Order
	l.store.Get(ctx, storage.LongTerm, models.OrdersKey, &orders)
	return orders
}

// Find returns the order with id or common.ErrorNotFound.
func (l *Ledger) Find(ctx context.Context, id string) (*models.Order, error) {
	orders := l.All(ctx)
	for i := len(orders) - 1; i >= 0; i-- {
		if orders[i].ID == id {
			return &orders[i], nil
		}
	}
	return nil, fmt.Errorf("order %s: %w", id, common.ErrorNotFound)
}

// Last returns the order recorded by SetLast, preferring this tab's copy.
func (l *Ledger) Last(ctx context.Context) (*models.Order, bool) {
	var o models.Order
	if l.store.Get(ctx, storage.ShortTerm, models.LastOrderKey, &o) {
		return &o, true
	}
	if l.store.Get(ctx, storage.LongTerm, models.LastOrderFallbackKey, &o) {
		return &o, true
	}
	return nil, false
}

// SetLast records o as the last order in this tab and in the long-term
// fallback slot. Both writes are attempted.
func (l *Ledger) SetLast(ctx context.Context, o models.Order) error {
	errShort := l.store.Set(ctx, storage.ShortTerm, models.LastOrderKey, o)
	errLong := l.store.Set(ctx, storage.LongTerm, models.LastOrderFallbackKey, o)
	if errShort != nil && errLong != nil {
		return errShort
	}
	return nil
}

// ClearLast forgets the last order pointer.
func (l *Ledger) ClearLast(ctx context.Context) {
	_ = l.store.Remove(ctx, storage.ShortTerm, models.LastOrderKey)
	_ = l.store.Remove(ctx, storage.LongTerm, models.LastOrderFallbackKey)
}
