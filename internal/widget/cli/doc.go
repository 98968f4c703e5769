// Package cli is the interactive host of the cart widget.
//
// Each process plays one browser tab: it opens the shared long-term store,
// keeps a private short-term scope, and watches the change log so that
// logins and cart edits made in other processes show up here.
//
// Key features:
//   - Add products, list the cart, change quantities, remove, clear
//   - Checkout with hidden card/CVC input and a cancellable payment delay
//   - Order history and the confirmation view
//   - login/logout standing in for the external auth system
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
