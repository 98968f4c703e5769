package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cartwidget/internal/dbx"
	"github.com/dmitrijs2005/cartwidget/internal/logging"
	"github.com/dmitrijs2005/cartwidget/internal/widget/migrations"
	"github.com/dmitrijs2005/cartwidget/internal/widget/models"
	"github.com/dmitrijs2005/cartwidget/internal/widget/repositories/changes"
	"github.com/dmitrijs2005/cartwidget/internal/widget/repositories/kv"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Scope selects one of the two key/value spaces.
type Scope int

const (
	LongTerm Scope = iota
	ShortTerm
)

func (s Scope) String() string {
	switch s {
	case LongTerm:
		return "long-term"
	case ShortTerm:
		return "short-term"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// ErrUnknownScope is returned for a Scope value other than LongTerm or ShortTerm.
var ErrUnknownScope = errors.New("unknown storage scope")

// Options configures Open.
type Options struct {
	// LongTermDSN is the SQLite DSN of the shared store. Required.
	LongTermDSN string
	// ShortTermDSN defaults to a private in-memory database.
	ShortTermDSN string
	// Origin identifies this process in the change log. Defaults to a new UUID.
	Origin string
	Logger logging.Logger
	// Now is used to timestamp change log rows. Defaults to time.Now.
	Now func() time.Time
}

// Store is the two-scope key/value adapter. It is safe for concurrent use.
type Store struct {
	long   *sql.DB
	short  *sql.DB
	origin string
	log    logging.Logger
	now    func() time.Time
}

// FileDSN builds the long-term DSN for a database file. Concurrent writers
// wait up to five seconds for the lock and transactions take the write lock
// up front.
func FileDSN(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_txlock=immediate"
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Open opens (and migrates) both scopes.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.LongTermDSN == "" {
		return nil, errors.New("long-term DSN is required")
	}
	if opts.ShortTermDSN == "" {
		opts.ShortTermDSN = ":memory:"
	}

	long, err := openDB(ctx, opts.LongTermDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open long-term store: %w", err)
	}
	short, err := openDB(ctx, opts.ShortTermDSN)
	if err != nil {
		_ = long.Close()
		return nil, fmt.Errorf("failed to open short-term store: %w", err)
	}
	return New(long, short, opts), nil
}

// New wraps already migrated databases.
func New(long, short *sql.DB, opts Options) *Store {
	s := &Store{long: long, short: short, origin: opts.Origin, log: opts.Logger, now: opts.Now}
	if s.origin == "" {
		s.origin = uuid.NewString()
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Origin is the id this store stamps on the change log.
func (s *Store) Origin() string { return s.origin }

func (s *Store) Close() error {
	return errors.Join(s.short.Close(), s.long.Close())
}

func (s *Store) db(scope Scope) (*sql.DB, error) {
	switch scope {
	case LongTerm:
		return s.long, nil
	case ShortTerm:
		return s.short, nil
	default:
		return nil, ErrUnknownScope
	}
}

func (s *Store) txn(scope Scope, db dbx.DBTX) *Txn {
	t := &Txn{scope: scope, kv: kv.NewSQLiteRepository(db), store: s}
	if scope == LongTerm {
		t.changes = changes.NewSQLiteRepository(db)
	}
	return t
}

// Get decodes the value under key into v and reports whether it did.
func (s *Store) Get(ctx context.Context, scope Scope, key string, v any) bool {
	db, err := s.db(scope)
	if err != nil {
		s.log.Warn(ctx, "storage read failed", "scope", scope, "key", key, "err", err)
		return false
	}
	return s.txn(scope, db).Get(ctx, key, v)
}

// Set stores v as JSON under key.
func (s *Store) Set(ctx context.Context, scope Scope, key string, v any) error {
	return s.Update(ctx, scope, func(t *Txn) error {
		return t.Set(ctx, key, v)
	})
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Store) Remove(ctx context.Context, scope Scope, key string) error {
	return s.Update(ctx, scope, func(t *Txn) error {
		return t.Remove(ctx, key)
	})
}

// Keys lists the keys stored in scope.
func (s *Store) Keys(ctx context.Context, scope Scope) ([]string, error) {
	db, err := s.db(scope)
	if err != nil {
		return nil, err
	}
	return s.txn(scope, db).Keys(ctx)
}

// Clear empties scope. Other tabs see a removal of every long-term key.
func (s *Store) Clear(ctx context.Context, scope Scope) error {
	return s.Update(ctx, scope, func(t *Txn) error {
		return t.Clear(ctx)
	})
}

// Update runs fn inside one transaction on scope. Nothing fn wrote is kept
// if it returns an error.
func (s *Store) Update(ctx context.Context, scope Scope, fn func(t *Txn) error) error {
	db, err := s.db(scope)
	if err == nil {
		err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			return fn(s.txn(scope, tx))
		})
	}
	if err != nil {
		s.log.Warn(ctx, "storage write failed", "scope", scope, "err", err)
		return err
	}
	return nil
}

// LatestChange is the highest change log seq, 0 when empty.
func (s *Store) LatestChange(ctx context.Context) (int64, error) {
	return changes.NewSQLiteRepository(s.long).Latest(ctx)
}

// ChangesSince returns up to limit long-term changes after seq, oldest first.
func (s *Store) ChangesSince(ctx context.Context, after int64, limit int) ([]models.Change, error) {
	return changes.NewSQLiteRepository(s.long).Since(ctx, after, limit)
}

// PruneChanges drops change log rows older than maxAge.
func (s *Store) PruneChanges(ctx context.Context, maxAge time.Duration) (int64, error) {
	return changes.NewSQLiteRepository(s.long).DeleteBefore(ctx, s.now().Add(-maxAge))
}
