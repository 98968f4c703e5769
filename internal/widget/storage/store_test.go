package storage_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/cartwidget/internal/logging"
	"github.com/dmitrijs2005/cartwidget/internal/widget/models"
	"github.com/dmitrijs2005/cartwidget/internal/widget/storage"
	"github.com/dmitrijs2005/cartwidget/internal/widget/storage/storagetest"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGetRemove(t *testing.T) {
	st := storagetest.New(t)
	ctx := context.Background()

	cart := models.Cart{{ID: "a", Title: "A", Price: "$1.00", Qty: 2}}
	require.NoError(t, st.Set(ctx, storage.LongTerm, models.GuestCartKey, cart))

	var got models.Cart
	require.True(t, st.Get(ctx, storage.LongTerm, models.GuestCartKey, &got))
	assert.Empty(t, cmp.Diff(cart, got))

	require.NoError(t, st.Remove(ctx, storage.LongTerm, models.GuestCartKey))
	assert.False(t, st.Get(ctx, storage.LongTerm, models.GuestCartKey, &got))

	require.NoError(t, st.Remove(ctx, storage.LongTerm, "never-set"))
}

func TestStore_ScopesAreSeparate(t *testing.T) {
	st := storagetest.New(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, storage.ShortTerm, "k", "short"))
	var v string
	assert.False(t, st.Get(ctx, storage.LongTerm, "k", &v))
	require.True(t, st.Get(ctx, storage.ShortTerm, "k", &v))
	assert.Equal(t, "short", v)
}

func TestStore_ShortTermIsPerTab(t *testing.T) {
	dsn := storagetest.SharedDSN(t)
	a := storagetest.Open(t, dsn)
	b := storagetest.Open(t, dsn)
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, storage.ShortTerm, "k", 1))
	require.NoError(t, a.Set(ctx, storage.LongTerm, "k", 2))

	var v int
	assert.False(t, b.Get(ctx, storage.ShortTerm, "k", &v))
	require.True(t, b.Get(ctx, storage.LongTerm, "k", &v))
	assert.Equal(t, 2, v)
}

func TestStore_MalformedValueIsAbsentAndLogged(t *testing.T) {
	var buf bytes.Buffer
	db, err := sql.Open("sqlite", storagetest.SharedDSN(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, storage.RunMigrations(context.Background(), db))
	_, err = db.Exec(`INSERT INTO kv (key, value) VALUES ('cart:guest', '{not json')`)
	require.NoError(t, err)

	st := storage.New(db, db, storage.Options{Logger: logging.NewTextLogger(&buf, "debug")})

	var cart models.Cart
	assert.False(t, st.Get(context.Background(), storage.LongTerm, models.GuestCartKey, &cart))
	assert.Contains(t, buf.String(), "malformed stored value")
	assert.Contains(t, buf.String(), "cart:guest")
}

func TestStore_LongTermWritesAppendChanges(t *testing.T) {
	st := storagetest.New(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, storage.LongTerm, models.SessionKey, models.Session{ID: "u1"}))
	require.NoError(t, st.Remove(ctx, storage.LongTerm, models.GuestCartKey))
	require.NoError(t, st.Set(ctx, storage.ShortTerm, models.LastOrderKey, "x"))

	got, err := st.ChangesSince(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.SessionKey, got[0].Key)
	assert.Equal(t, models.GuestCartKey, got[1].Key)
	assert.Equal(t, st.Origin(), got[0].Origin)

	latest, err := st.LatestChange(ctx)
	require.NoError(t, err)
	assert.Equal(t, got[1].Seq, latest)
}

func TestStore_UpdateRollsBackOnError(t *testing.T) {
	st := storagetest.New(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := st.Update(ctx, storage.LongTerm, func(tx *storage.Txn) error {
		require.NoError(t, tx.Set(ctx, models.OrdersKey, []string{"o1"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	var v []string
	assert.False(t, st.Get(ctx, storage.LongTerm, models.OrdersKey, &v))
	latest, err := st.LatestChange(ctx)
	require.NoError(t, err)
	assert.Zero(t, latest)
}

func TestStore_UnknownScope(t *testing.T) {
	st := storagetest.New(t)
	ctx := context.Background()
	var v string
	assert.False(t, st.Get(ctx, storage.Scope(9), "k", &v))
	require.ErrorIs(t, st.Set(ctx, storage.Scope(9), "k", "v"), storage.ErrUnknownScope)
	assert.Equal(t, "scope(9)", storage.Scope(9).String())
}

func TestStore_UnencodableValue(t *testing.T) {
	st := storagetest.New(t)
	err := st.Set(context.Background(), storage.ShortTerm, "k", make(chan int))
	require.ErrorContains(t, err, "failed to encode k")
}

func TestStore_DriverFailuresAreReturned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var buf bytes.Buffer
	st := storage.New(db, db, storage.Options{Origin: "tab", Logger: logging.NewTextLogger(&buf, "debug")})
	ctx := context.Background()

	quota := errors.New("database or disk is full")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO kv").WillReturnError(quota)
	mock.ExpectRollback()

	err = st.Set(ctx, storage.LongTerm, models.GuestCartKey, models.Cart{})
	require.ErrorIs(t, err, quota)
	assert.Contains(t, buf.String(), "storage write failed")

	mock.ExpectBegin().WillReturnError(errors.New("storage disabled"))
	require.Error(t, st.Remove(ctx, storage.ShortTerm, "k"))

	mock.ExpectQuery("SELECT value FROM kv").WillReturnError(errors.New("io error"))
	var c models.Cart
	assert.False(t, st.Get(ctx, storage.LongTerm, models.GuestCartKey, &c))
	assert.Contains(t, buf.String(), "storage read failed")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_PruneChanges(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	clock := now.Add(-48 * time.Hour)

	db, err := sql.Open("sqlite", storagetest.SharedDSN(t))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, storage.RunMigrations(context.Background(), db))

	st := storage.New(db, db, storage.Options{Now: func() time.Time { return clock }})
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, storage.LongTerm, "old", 1))
	clock = now
	require.NoError(t, st.Set(ctx, storage.LongTerm, "new", 1))

	n, err := st.PruneChanges(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_KeysAndClear(t *testing.T) {
	st := storagetest.New(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, storage.LongTerm, models.SessionKey, models.Session{ID: "u1"}))
	require.NoError(t, st.Set(ctx, storage.LongTerm, models.GuestCartKey, models.Cart{}))
	require.NoError(t, st.Set(ctx, storage.ShortTerm, models.SkipPrefillKey, true))

	keys, err := st.Keys(ctx, storage.LongTerm)
	require.NoError(t, err)
	assert.Equal(t, []string{models.GuestCartKey, models.SessionKey}, keys)

	before, err := st.LatestChange(ctx)
	require.NoError(t, err)
	require.NoError(t, st.Clear(ctx, storage.LongTerm))

	keys, err = st.Keys(ctx, storage.LongTerm)
	require.NoError(t, err)
	assert.Empty(t, keys)

	got, err := st.ChangesSince(ctx, before, 10)
	require.NoError(t, err)
	require.Len(t, got, 2, "every cleared key is announced")
	assert.Equal(t, models.GuestCartKey, got[0].Key)
	assert.Equal(t, models.SessionKey, got[1].Key)

	short, err := st.Keys(ctx, storage.ShortTerm)
	require.NoError(t, err)
	assert.Equal(t, []string{models.SkipPrefillKey}, short)

	_, err = st.Keys(ctx, storage.Scope(9))
	require.ErrorIs(t, err, storage.ErrUnknownScope)
}

func TestTxn_LookupTellsAbsentFromMalformed(t *testing.T) {
	db, err := sql.Open("sqlite", storagetest.SharedDSN(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, storage.RunMigrations(context.Background(), db))
	_, err = db.Exec(`INSERT INTO kv (key, value) VALUES ('orders:all', '{not json')`)
	require.NoError(t, err)

	st := storage.New(db, db, storage.Options{})
	ctx := context.Background()

	err = st.Update(ctx, storage.LongTerm, func(tx *storage.Txn) error {
		var orders []models.Order
		ok, err := tx.Lookup(ctx, models.OrdersKey, &orders)
		assert.False(t, ok)
		assert.ErrorIs(t, err, storage.ErrMalformed)

		ok, err = tx.Lookup(ctx, "missing", &orders)
		assert.False(t, ok)
		assert.NoError(t, err)
		return nil
	})
	require.NoError(t, err)
}
