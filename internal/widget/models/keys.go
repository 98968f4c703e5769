// Package models defines the cart widget's persisted records and the
// storage keys they live under.
package models

// Storage layout. Keys are stable; other tabs and pages read them directly.
const (
	GuestCartKey   = "cart:guest"
	UserCartPrefix = "cart:user:"
	CartKeyPattern = "cart:*"

	OrdersKey            = "orders:all"
	LastOrderKey         = "orders:last"
	LastOrderFallbackKey = "orders:last:tmp"

	SessionKey     = "session:current"
	SkipPrefillKey = "checkout:skip-prefill"
)

// UserCartKey is the cart key for an authenticated user id.
func UserCartKey(userID string) string {
	return UserCartPrefix + userID
}
