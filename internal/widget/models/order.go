package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Order totals are written as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Notes   string `json:"notes"`
}

// Payment keeps only what may be stored about a card.
type Payment struct {
	Method string `json:"method"`
	Masked string `json:"masked"`
	Brand  string `json:"brand"`
	Last4  string `json:"last4"`
}

// Order is created once per successful checkout and never modified.
type Order struct {
	ID        string          `json:"id"`
	UserID    *string         `json:"userId"`
	Customer  Customer        `json:"customer"`
	Payment   Payment         `json:"payment"`
	Items     Cart            `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"createdAt"`
}
