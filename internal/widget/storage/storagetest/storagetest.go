// Package storagetest opens throwaway stores for tests.
package storagetest

import (
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/cartwidget/internal/logging"
	"github.com/dmitrijs2005/cartwidget/internal/widget/storage"
	"github.com/google/uuid"
)

// SharedDSN returns a fresh in-memory long-term DSN. Stores opened on the
// same DSN see each other's writes, like two tabs of one origin.
func SharedDSN(t testing.TB) string {
	t.Helper()
	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "file:lt_" + name + "?mode=memory&cache=shared"
}

// Open opens a store on dsn with its own short-term scope and closes it
// when the test ends.
func Open(t testing.TB, dsn string) *storage.Store {
	t.Helper()
	st, err := storage.Open(context.Background(), storage.Options{
		LongTermDSN: dsn,
		Logger:      logging.Discard(),
	})
	if err != nil {
		t.Fatalf("storagetest: open %s: %v", dsn, err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// New opens a single-tab store.
func New(t testing.TB) *storage.Store {
	t.Helper()
	return Open(t, SharedDSN(t))
}
