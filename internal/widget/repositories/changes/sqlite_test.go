package changes

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE changes (
  seq        INTEGER PRIMARY KEY AUTOINCREMENT,
  key        TEXT NOT NULL,
  origin     TEXT NOT NULL,
  changed_at INTEGER NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

func TestAppendAndSince(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	require.NoError(t, r.Append(ctx, "session:current", "tab-a", at))
	require.NoError(t, r.Append(ctx, "cart:user:1", "tab-a", at.Add(time.Second)))
	require.NoError(t, r.Append(ctx, "cart:guest", "tab-b", at.Add(2*time.Second)))

	all, err := r.Since(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "session:current", all[0].Key)
	assert.Equal(t, "tab-a", all[0].Origin)
	assert.Equal(t, at, all[0].ChangedAt)
	assert.Less(t, all[0].Seq, all[1].Seq)

	tail, err := r.Since(ctx, all[0].Seq, 10)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "cart:user:1", tail[0].Key)

	limited, err := r.Since(ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestLatest(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	seq, err := r.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, r.Append(ctx, "k", "o", time.Now()))
	require.NoError(t, r.Append(ctx, "k", "o", time.Now()))

	seq, err = r.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
}

func TestDeleteBefore(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, r.Append(ctx, "old", "o", now.Add(-2*time.Hour)))
	require.NoError(t, r.Append(ctx, "new", "o", now))

	n, err := r.DeleteBefore(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rest, err := r.Since(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "new", rest[0].Key)
}

func TestRepository_DBErrorsWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	require.ErrorContains(t, r.Append(ctx, "k", "o", time.Now()), "failed to append change[k]")
	_, err := r.Since(ctx, 0, 1)
	require.ErrorContains(t, err, "failed to select changes")
	_, err = r.Latest(ctx)
	require.ErrorContains(t, err, "failed to get latest change")
	_, err = r.DeleteBefore(ctx, time.Now())
	require.ErrorContains(t, err, "failed to prune changes")
}
