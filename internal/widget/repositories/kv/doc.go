// Package kv provides the key/value table behind one storage scope.
//
// Values are opaque strings (JSON text written by the storage adapter).
// SQLiteRepository works over a dbx.DBTX, so the same code runs on a
// *sql.DB or inside a transaction opened by dbx.WithTx.
//
// Typical Usage
//
//	repo := kv.NewSQLiteRepository(db)
//	_ = repo.Set(ctx, "cart:guest", `[]`)
//	v, ok, _ := repo.Get(ctx, "cart:guest")
package kv
