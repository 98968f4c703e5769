package services

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/cartwidget/internal/common"
	"github.com/dmitrijs2005/cartwidget/internal/widget/models"
)

// Form is the checkout form as typed by the customer. Card and CVC are
// byte slices so they can be wiped once the payment is resolved.
type Form struct {
	Name    string
	Email   string
	Address string
	Phone   string
	Notes   string
	Card    []byte
	Expiry  string
	CVC     []byte
}

// Wipe zeroes the card number and CVC.
func (f *Form) Wipe() {
	common.WipeByteArray(f.Card)
	common.WipeByteArray(f.CVC)
}

// ValidationError names the first form field that failed and the message
// to show next to it. It matches common.ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
	cause   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() []error {
	if e.cause != nil {
		return []error{common.ErrValidation, e.cause}
	}
	return []error{common.ErrValidation}
}

var (
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	cardPattern   = regexp.MustCompile(`^[0-9]{12,19}$`)
	cvcPattern    = regexp.MustCompile(`^[0-9]{3,4}$`)
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{2})$`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// Validate checks f in a fixed order and returns the first failure. On
// success the returned form is trimmed, the email lowercased and the card
// number stripped of whitespace. Card and CVC of the result never share
// memory with f.
func Validate(f Form, cart models.Cart) (Form, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Address = strings.TrimSpace(f.Address)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Notes = strings.TrimSpace(f.Notes)
	f.Card = whitespace.ReplaceAll(f.Card, nil)
	f.Expiry = strings.TrimSpace(f.Expiry)
	f.CVC = bytes.Clone(bytes.TrimSpace(f.CVC))

	switch {
	case f.Name == "":
		return f, &ValidationError{Field: "name", Message: "Enter your name."}
	case !emailPattern.MatchString(f.Email):
		return f, &ValidationError{Field: "email", Message: "Invalid email."}
	case f.Address == "":
		return f, &ValidationError{Field: "address", Message: "Enter the shipping address."}
	case len(cart) == 0:
		return f, &ValidationError{Field: "cart", Message: "The cart is empty.", cause: common.ErrEmptyCart}
	case !cardPattern.Match(f.Card):
		return f, &ValidationError{Field: "card", Message: "Invalid card number."}
	case !cvcPattern.Match(f.CVC):
		return f, &ValidationError{Field: "cvc", Message: "Invalid CVC."}
	case !expiryPattern.MatchString(f.Expiry):
		return f, &ValidationError{Field: "expiry", Message: "Invalid expiry (MM/YY)."}
	}
	return f, nil
}
