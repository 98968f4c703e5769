// Package storage is the widget's persistent store adapter.
//
// # Overview
//
// A Store wraps two key/value scopes:
//
//   - LongTerm: a SQLite file shared by every widget process on the machine
//     (the "tabs" of one origin). Every write also appends a row to the
//     change log so other tabs can observe it.
//   - ShortTerm: an in-memory SQLite database private to this process. It
//     disappears when the process exits.
//
// Values are JSON. Reads never fail: a missing key, a driver error or text
// that does not decode into the target are all reported as absent, and the
// latter two are logged. Writes log and return their error; callers decide
// whether it matters.
//
// Read-modify-write sequences that must not interleave with other tabs go
// through Update, which runs the callback inside one SQLite transaction.
//
// Typical Usage
//
//	st, err := storage.Open(ctx, storage.Options{
//	    LongTermDSN: storage.FileDSN(cfg.DatabasePath()),
//	    Logger:      log,
//	})
//	var cart models.Cart
//	if st.Get(ctx, storage.LongTerm, "cart:guest", &cart) { ... }
//	_ = st.Set(ctx, storage.LongTerm, "cart:guest", cart)
package storage
