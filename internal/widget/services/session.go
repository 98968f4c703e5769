package services

import (
	"context"

	"github.com/dmitrijs2005/cartwidget/internal/widget/models"
	"github.com/dmitrijs2005/cartwidget/internal/widget/storage"
)

// SessionReader reads the externally written current-user record. It never
// caches: other tabs may rewrite the record at any time.
type SessionReader struct {
	store Storage
}

func NewSessionReader(store Storage) *SessionReader {
	return &SessionReader{store: store}
}

// Current returns the session from the long-term scope, falling back to the
// short-term one, or nil when neither holds a readable record.
func (r *SessionReader) Current(ctx context.Context) *models.Session {
	for _, scope := range []storage.Scope{storage.LongTerm, storage.ShortTerm} {
		var s models.Session
		if r.store.Get(ctx, scope, models.SessionKey, &s) {
			return &s
		}
	}
	return nil
}
