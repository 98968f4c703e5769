// Package services implements the cart widget's state core: the session
// reader, cart store, guest-to-user merge, panel projection, order ledger,
// checkout pipeline and cross-tab sync.
//
// Every service is built over a Storage handle (normally *storage.Store),
// so tests can run the whole core against throwaway SQLite stores.
package services

import (
	"context"

	"github.com/dmitrijs2005/cartwidget/internal/widget/storage"
)

// Storage is the persistent store adapter as seen by the services.
type Storage interface {
	Get(ctx context.Context, scope storage.Scope, key string, v any) bool
	Set(ctx context.Context, scope storage.Scope, key string, v any) error
	Remove(ctx context.Context, scope storage.Scope, key string) error
	Update(ctx context.Context, scope storage.Scope, fn func(t *storage.Txn) error) error
}
