// Package changes persists the shared storage change log.
//
// # Overview
//
// Every write to the long-term scope appends one row (key, origin tab,
// time) in the same transaction as the write itself. Other tabs poll the
// log with Since and replay the rows as storage notifications, which is
// how a login in one tab reaches the carts shown in another.
//
// Sequence numbers are assigned by SQLite (AUTOINCREMENT) and never reused,
// so a reader only needs to remember the last seq it has seen.
//
// Typical Usage
//
//	repo := changes.NewSQLiteRepository(tx)
//	_ = repo.Append(ctx, "cart:guest", origin, time.Now())
//	last, _ := repo.Latest(ctx)
//	rows, _ := repo.Since(ctx, last, 100)
package changes
