// Package common defines sentinel errors shared by the storage, service and
// CLI layers of the cart widget. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Cart errors.
	ErrInvalidItem = errors.New("invalid cart item")

	// Checkout validation errors.
	ErrValidation = errors.New("validation error")
	ErrEmptyCart  = errors.New("cart is empty")

	// Checkout commit / lifecycle errors.
	ErrLedgerWrite      = errors.New("order could not be saved")
	ErrCheckoutBusy     = errors.New("payment already in progress")
	ErrFormClosed       = errors.New("checkout form is not open")
	ErrCheckoutCanceled = errors.New("checkout canceled")
)
