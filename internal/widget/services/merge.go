package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/cartwidget/internal/logging"
	"github.com/dmitrijs2005/cartwidget/internal/widget/models"
	"github.com/dmitrijs2005/cartwidget/internal/widget/storage"
)

// MergeEngine folds the guest cart into the user's cart when a login is
// observed.
type MergeEngine struct {
	store   Storage
	session *SessionReader
	log     logging.Logger

	mu       sync.Mutex
	lastUser string
}

func NewMergeEngine(store Storage, session *SessionReader, log logging.Logger) *MergeEngine {
	return &MergeEngine{store: store, session: session, log: log}
}

// OnSession reacts to the current session. It merges once per transition
// to a new authenticated id; repeated notifications for the same id and
// guest sessions do nothing. A failed merge is retried on the next call.
func (m *MergeEngine) OnSession(ctx context.Context) (bool, error) {
	uid := m.session.Current(ctx).UserID()

	m.mu.Lock()
	defer m.mu.Unlock()
	if uid == m.lastUser {
		return false, nil
	}
	if uid == "" {
		m.lastUser = ""
		return false, nil
	}
	merged, err := m.Merge(ctx, uid)
	if err != nil {
		return false, err
	}
	m.lastUser = uid
	return merged, nil
}

// Merge moves the guest cart into userID's cart, summing quantities by
// item id, and deletes the guest cart. It reports whether anything moved.
// The read, write and delete happen in one transaction.
func (m *MergeEngine) Merge(ctx context.Context, userID string) (bool, error) {
	merged := false
	err := m.store.Update(ctx, storage.LongTerm, func(tx *storage.Txn) error {
		var guest models.Cart
		if !tx.Get(ctx, models.GuestCartKey, &guest) || len(guest) == 0 {
			return nil
		}
		var user models.Cart
		tx.Get(ctx, models.UserCartKey(userID), &user)

		if err := tx.Set(ctx, models.UserCartKey(userID), MergeCarts(user, guest)); err != nil {
			return err
		}
		if err := tx.Remove(ctx, models.GuestCartKey); err != nil {
			return err
		}
		merged = true
		return nil
	})
	if err != nil {
		m.log.Error(ctx, "cart merge failed", "user", userID, "err", err)
		return false, err
	}
	if merged {
		m.log.Info(ctx, "guest cart merged", "user", userID)
	}
	return merged, nil
}

// MergeCarts combines carts by item id in first-seen order. Each row keeps
// the fields of its first occurrence and the sum of all quantities. Items
// without an id are dropped.
func MergeCarts(carts ...models.Cart) models.Cart {
	out := models.Cart{}
	index := map[string]int{}
	for _, cart := range carts {
		for _, it := range cart {
			if it.ID == "" {
				continue
			}
			i, ok := index[it.ID]
			if !ok {
				seed := it
				seed.Qty = 0
				i = len(out)
				index[it.ID] = i
				out = append(out, seed)
			}
			out[i].Qty += it.Quantity()
		}
	}
	return out
}
