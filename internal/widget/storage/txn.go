package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/dmitrijs2005/cartwidget/internal/widget/repositories/changes"
	"github.com/dmitrijs2005/cartwidget/internal/widget/repositories/kv"
)

// Txn is the view of one scope handed to an Update callback, or used
// directly by Store for single reads.
type Txn struct {
	scope   Scope
	kv      kv.Repository
	changes changes.Repository
	store   *Store
}

// ErrMalformed is returned by Lookup for a stored value that is not valid
// JSON for the target.
var ErrMalformed = errors.New("malformed stored value")

// Get decodes the value under key into v. Missing keys, read errors and
// malformed JSON all report false.
func (t *Txn) Get(ctx context.Context, key string, v any) bool {
	ok, err := t.Lookup(ctx, key, v)
	switch {
	case errors.Is(err, ErrMalformed):
		t.store.log.Warn(ctx, "malformed stored value", "scope", t.scope, "key", key, "err", err)
	case err != nil:
		t.store.log.Warn(ctx, "storage read failed", "scope", t.scope, "key", key, "err", err)
	}
	return ok
}

// Lookup is Get for callers that must tell a missing key from one they
// cannot read: it reports (false, nil) only when key is absent.
func (t *Txn) Lookup(ctx context.Context, key string, v any) (bool, error) {
	raw, ok, err := t.kv.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrMalformed, key, err)
	}
	return true, nil
}

// Keys lists the keys of the scope in sorted order.
func (t *Txn) Keys(ctx context.Context) ([]string, error) {
	all, err := t.kv.List(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(all)), nil
}

// Clear removes every key of the scope. Each removed key is recorded in
// the change log like a Remove.
func (t *Txn) Clear(ctx context.Context) error {
	keys, err := t.Keys(ctx)
	if err != nil {
		return err
	}
	if err := t.kv.Clear(ctx); err != nil {
		return err
	}
	for _, k := range keys {
		if err := t.touch(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (t *Txn) Set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := t.kv.Set(ctx, key, string(b)); err != nil {
		return err
	}
	return t.touch(ctx, key)
}

func (t *Txn) Remove(ctx context.Context, key string) error {
	if err := t.kv.Delete(ctx, key); err != nil {
		return err
	}
	return t.touch(ctx, key)
}

func (t *Txn) touch(ctx context.Context, key string) error {
	if t.changes == nil {
		return nil
	}
	return t.changes.Append(ctx, key, t.store.origin, t.store.now())
}
