package services

import (
	"bytes"
	"strconv"

	"github.com/dmitrijs2005/cartwidget/internal/widget/models"
)

// CardBrand guesses the network from the leading digits.
func CardBrand(digits []byte) string {
	prefix := func(n int) int {
		if len(digits) < n {
			return -1
		}
		v, err := strconv.Atoi(string(digits[:n]))
		if err != nil {
			return -1
		}
		return v
	}
	switch p2, p3, p4 := prefix(2), prefix(3), prefix(4); {
	case bytes.HasPrefix(digits, []byte("4")):
		return "VISA"
	case p2 >= 51 && p2 <= 55, p4 >= 2221 && p4 <= 2720:
		return "MASTERCARD"
	case p2 == 34 || p2 == 37:
		return "AMEX"
	case p4 == 6011 || p2 == 65 || (p3 >= 644 && p3 <= 649):
		return "DISCOVER"
	default:
		return "CARD"
	}
}

// MaskCard returns the storable part of a validated card number. Only the
// last four digits survive.
func MaskCard(digits []byte) models.Payment {
	last4 := string(digits)
	if len(digits) > 4 {
		last4 = string(digits[len(digits)-4:])
	}
	return models.Payment{
		Method: "card",
		Masked: "**** **** **** " + last4,
		Brand:  CardBrand(digits),
		Last4:  last4,
	}
}
